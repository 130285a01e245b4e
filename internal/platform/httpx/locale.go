package httpx

import (
	"net/http"

	"golang.org/x/text/language"
)

// The product historically mixed Portuguese and English messages in
// API responses. Responses now carry a stable code plus a title in
// the caller's negotiated language.

var supportedLocales = []language.Tag{
	language.BrazilianPortuguese, // default
	language.English,
}

var localeMatcher = language.NewMatcher(supportedLocales)

type localizer struct {
	tag language.Tag
}

var titlesPT = map[string]string{
	CodeUnauthenticated: "Não autenticado",
	CodeForbidden:       "Acesso negado",
	CodeNotFound:        "Não encontrado",
	CodeValidation:      "Dados inválidos",
	CodeDuplicate:       "Registro duplicado",
	CodeUpstream:        "Erro interno",
}

var titlesEN = map[string]string{
	CodeUnauthenticated: "Unauthenticated",
	CodeForbidden:       "Forbidden",
	CodeNotFound:        "Not Found",
	CodeValidation:      "Validation Failed",
	CodeDuplicate:       "Duplicate",
	CodeUpstream:        "Internal Error",
}

func localizerFor(r *http.Request) localizer {
	if r == nil {
		return localizer{tag: language.BrazilianPortuguese}
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return localizer{tag: language.BrazilianPortuguese}
	}
	tag, _, _ := localeMatcher.Match(tags...)
	return localizer{tag: tag}
}

func (l localizer) title(code string) string {
	base, _ := l.tag.Base()
	if base.String() == "en" {
		if title, ok := titlesEN[code]; ok {
			return title
		}
	}
	if title, ok := titlesPT[code]; ok {
		return title
	}
	return code
}
