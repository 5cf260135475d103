package locale

import (
	"strings"
	"unicode"
)

// Detect picks a language for text. Script ranges win over orthography,
// orthography wins over function words, and English is the default.
func Detect(text string) Tag {
	text = strings.TrimSpace(text)
	if text == "" {
		return English
	}
	if tag, ok := detectScript(text); ok {
		return tag
	}
	lower := strings.ToLower(text)
	tokens := tokenize(lower)
	if tag, ok := detectOrthography(lower, tokens); ok {
		return tag
	}
	if tag, ok := detectFunctionWords(tokens); ok {
		return tag
	}
	return English
}

// Kana and Hangul are checked before Han since Japanese and Korean text
// routinely embeds Han ideographs.
func detectScript(text string) (Tag, bool) {
	var cyrillic, kana, hangul, han, arabic bool
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic = true
		case unicode.Is(unicode.Hiragana, r), unicode.Is(unicode.Katakana, r):
			kana = true
		case unicode.Is(unicode.Hangul, r):
			hangul = true
		case unicode.Is(unicode.Han, r):
			han = true
		case unicode.Is(unicode.Arabic, r):
			arabic = true
		}
	}
	switch {
	case cyrillic:
		return Russian, true
	case kana:
		return Japanese, true
	case hangul:
		return Korean, true
	case han:
		return Chinese, true
	case arabic:
		return Arabic, true
	}
	return "", false
}

var frenchGraveExceptions = map[string]struct{}{
	"où": {}, "là": {}, "déjà": {}, "voilà": {}, "holà": {},
}

func detectOrthography(lower string, tokens []string) (Tag, bool) {
	if strings.ContainsAny(lower, "ãõ") {
		return Portuguese, true
	}
	if strings.ContainsAny(lower, "œæëïîûÿ") {
		return French, true
	}
	for _, tok := range tokens {
		if tok == "où" {
			return French, true
		}
	}
	for _, tok := range tokens {
		if tok == "è" {
			return Italian, true
		}
		if _, skip := frenchGraveExceptions[tok]; skip {
			continue
		}
		runes := []rune(tok)
		if len(runes) >= 2 && strings.ContainsRune("àìòù", runes[len(runes)-1]) {
			return Italian, true
		}
	}
	return "", false
}

type wordSet map[string]struct{}

func words(list ...string) wordSet {
	s := make(wordSet, len(list))
	for _, w := range list {
		s[w] = struct{}{}
	}
	return s
}

// Tie-break order for the function-word stage.
var functionWordOrder = []Tag{Portuguese, Italian, French, German, Spanish}

var functionWords = map[Tag]wordSet{
	Portuguese: words("não", "você", "vocês", "eu", "os", "as", "do", "da", "dos", "das", "em", "no", "na", "um", "uma",
		"com", "para", "sobre", "estou", "está", "são", "também", "isso", "muito", "quero", "preciso", "obrigado",
		"onde", "pesquisar", "informação", "informações", "ajuda", "pode"),
	Italian: words("il", "lo", "gli", "della", "delle", "dello", "degli", "di", "che", "e", "per", "sono", "voglio",
		"cerco", "informazioni", "sul", "sulla", "non", "mi", "ciao", "grazie", "come", "dove", "perché", "anche",
		"questo", "questa", "ho", "hai", "cosa"),
	French: words("le", "les", "des", "du", "et", "est", "je", "vous", "nous", "une", "pour", "avec", "sur", "dans",
		"pas", "ne", "qui", "cherche", "veux", "informations", "bonjour", "merci", "comment", "c'est", "j'ai",
		"quel", "quelle", "météo"),
	German: words("der", "die", "das", "und", "ist", "ich", "wir", "ein", "eine", "nicht", "mit", "für", "auf", "zu",
		"den", "dem", "von", "suche", "möchte", "informationen", "über", "wie", "wo", "bitte", "danke", "hallo",
		"wetter", "heute"),
	Spanish: words("el", "los", "las", "del", "al", "y", "es", "una", "por", "para", "con", "quiero", "buscar",
		"información", "sobre", "cómo", "qué", "dónde", "cuál", "estoy", "necesito", "puedes", "hola", "gracias",
		"muy", "pero", "hay", "clima"),
}

var englishWords = words("the", "and", "is", "are", "was", "what", "how", "to", "of", "you", "i", "for", "with",
	"on", "this", "that", "please", "about", "find", "search", "can", "me", "my", "latest")

func detectFunctionWords(tokens []string) (Tag, bool) {
	if len(tokens) == 0 {
		return "", false
	}
	english := 0
	scores := make(map[Tag]int, len(functionWords))
	for _, tok := range tokens {
		if _, ok := englishWords[tok]; ok {
			english++
		}
		for tag, set := range functionWords {
			if _, ok := set[tok]; ok {
				scores[tag]++
			}
		}
	}
	best, bestScore := Tag(""), 0
	for _, tag := range functionWordOrder {
		if scores[tag] > bestScore {
			best, bestScore = tag, scores[tag]
		}
	}
	if bestScore == 0 || bestScore <= english {
		return "", false
	}
	return best, true
}

func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}
