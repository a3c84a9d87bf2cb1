package composer

import (
	"regexp"
	"sort"
	"strings"

	types "github.com/contractsense/contractsense-backend/internal/domain"
)

// Keyword patterns per intent, matched against the lowercased question.
// Contracts in this domain are written in Portuguese, so the patterns
// cover the Portuguese vocabulary plus the handful of technical terms
// (sla, uptime, km) that appear verbatim in either language.
var intentPatterns = map[types.IntentKind][]*regexp.Regexp{
	types.IntentSLA: compileAll(
		`\bsla\b`, `tempo.*resposta`, `prazo.*atendimento`,
		`n[íi]vel.*servi[çc]o`, `disponibilidade`, `uptime`,
	),
	types.IntentFiber: compileAll(
		`\bfibra\b`, `\bkm\b`, `quilometr`, `extens[ãa]o`,
		`\brede\b`, `\bcabo\b`, `infraestrutura`,
	),
	types.IntentPenalty: compileAll(
		`\bmulta\b`, `penalidade`, `san[çc][ãa]o`,
		`descumprimento`, `infra[çc][ãa]o`,
	),
	types.IntentDuration: compileAll(
		`\bprazo\b`, `vig[êe]ncia`, `dura[çc][ãa]o`,
		`per[íi]odo`, `renova[çc][ãa]o`, `vencimento`, `t[ée]rmino`,
	),
	types.IntentContractInfo: compileAll(
		`n[úu]mero.*contrato`, `contrato.*n`, `identifica[çc][ãa]o`,
		`\bpartes\b`, `contratante`, `contratada`,
	),
}

// kindOrder breaks score ties deterministically.
var kindOrder = []types.IntentKind{
	types.IntentSLA, types.IntentFiber, types.IntentPenalty,
	types.IntentDuration, types.IntentContractInfo,
}

var questionForms = []struct {
	form types.QuestionForm
	re   *regexp.Regexp
}{
	{types.FormWhat, regexp.MustCompile(`\bqual\b|\bquais\b|o que`)},
	{types.FormHowMuch, regexp.MustCompile(`\bquanto\b|\bquanta\b|\bquantos\b|\bquantas\b`)},
	{types.FormWhen, regexp.MustCompile(`\bquando\b`)},
	{types.FormWhere, regexp.MustCompile(`\bonde\b`)},
	{types.FormHow, regexp.MustCompile(`\bcomo\b`)},
	{types.FormWhy, regexp.MustCompile(`por\s*qu[eê]`)},
}

var (
	numberRe      = regexp.MustCompile(`\b\d+(?:[.,]\d+)?\b`)
	timeUnitRe    = regexp.MustCompile(`\b\d+\s*(?:horas?|dias?|meses?|anos?|minutos?)\b`)
	monetaryRe    = regexp.MustCompile(`r\$\s*\d+(?:[.,]\d+)*`)
	contractRefRe = regexp.MustCompile(`contrato\s*n?[°º]?\s*[\w\-/]+`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// classifyIntent scores the question against every intent's keyword
// patterns. The highest-scoring intent wins; no match at all is the
// general intent. Classification is purely lexical, no model call.
func classifyIntent(question string) types.QueryIntent {
	lower := strings.ToLower(question)

	scores := make(map[types.IntentKind]int, len(intentPatterns))
	for kind, patterns := range intentPatterns {
		for _, re := range patterns {
			if re.MatchString(lower) {
				scores[kind]++
			}
		}
	}

	var matched []types.IntentKind
	for _, kind := range kindOrder {
		if scores[kind] > 0 {
			matched = append(matched, kind)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return scores[matched[i]] > scores[matched[j]]
	})

	intent := types.QueryIntent{
		Kind:  types.IntentGeneral,
		Kinds: matched,
		Form:  questionForm(lower),
		Entities: types.QueryEntities{
			Numbers:      numberRe.FindAllString(lower, -1),
			TimeUnits:    timeUnitRe.FindAllString(lower, -1),
			Monetary:     monetaryRe.FindAllString(lower, -1),
			ContractRefs: contractRefRe.FindAllString(lower, -1),
		},
	}
	if len(matched) > 0 {
		intent.Kind = matched[0]
	}
	return intent
}

func questionForm(lower string) types.QuestionForm {
	for _, qf := range questionForms {
		if qf.re.MatchString(lower) {
			return qf.form
		}
	}
	return types.FormGeneral
}
