package interpreter

import (
	"regexp"
	"slices"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/VisageDvachevsky/wink-ai-model/internal/apperr"
	"github.com/VisageDvachevsky/wink-ai-model/internal/model"
	"github.com/VisageDvachevsky/wink-ai-model/internal/taxonomy"
)

// Scene number limits. maxSceneSpan bounds how many scenes one range may expand to.
const (
	maxSceneNumber = 10000
	maxSceneSpan   = 500
)

// Word boundaries. RE2's \b only knows ASCII, so Cyrillic needs explicit letter classes.
const (
	wordStart = `(?:^|[^\p{L}\p{N}])`
	wordEnd   = `(?:$|[^\p{L}\p{N}])`
)

const sceneRange = `(?:с\s+)?(\d+)(?:\s*(?:-|to|through|thru|до|по)\s*(\d+))?`

// sceneRe captures "remove scene N" and "remove scenes N-M" in English or Russian.
var sceneRe = compile(wordStart +
	`(?:remove|delete|cut|drop|skip|exclude|убрать|убери|уберите|удалить|удали|удалите|вырезать|вырежи|вырежьте|исключить|исключи|исключите)` +
	`\s+(?:the\s+|all\s+)?(?:scenes?|сцен[уаы]?)\s*(?:#|no\.?|номер|n)?\s*` + sceneRange)

// sceneMoreRe reads one further item joined by a comma or "and" ("scenes 1-3 and 5").
var sceneMoreRe = compile(`^\s*(?:,|;|&|\+|and|и)\s*(?:(?:scenes?|сцен[уаы]?)\s*)?` + sceneRange)

// reduceVerbRe is the verb half of every category rule. Quantity words (no, less, без)
// only count when they open the request or a clause, see negationLead.
var reduceVerbRe = compile(wordStart + `(?:` +
	`remov\p{L}*|reduc\p{L}*|soften\p{L}*|tone\s+down|lessen|without|cut|eliminat\p{L}*|` +
	`replac\p{L}*|delet\p{L}*|drop|censor\p{L}*|clean\s+up|minimi[sz]e|decreas\p{L}*|lower|mute|` +
	`(?:убр|убер|уменьш|смягч|замен|удал|исключ|вырез|выреж|сниз|пониз|убав)\p{L}*` +
	`)` + wordEnd)

// negationLead matches "no"/"less"/"без" directly ahead of a noun, at the start of the
// request, after punctuation, or after a joining or asking word. "there is no violence"
// describes the script and does not match.
const negationLead = `(?:^|[,;.!?:]\s*|(?:^|[^\p{L}\p{N}])(?:and|but|please|want|make\s+it|и|а|но|пожалуйста|хочу|сделай|сделать)\s+)` +
	`(?:no|less|fewer|без|меньше)\s+(?:more\s+|any\s+|so\s+much\s+|of\s+(?:the\s+)?)?`

// Character targeting, applied to category reductions.
var (
	allCharactersRe = compile(wordStart +
		`(?:(?:у|для)\s+всех(?:\s+персонаж\p{L}*|\s+геро\p{L}*)?|(?:for|from)\s+(?:all|every)\s+characters?|(?:for|from)\s+everyone|all\s+characters)` + wordEnd)
	namedCharacterRe = compile(wordStart +
		`(?:(?:у|для)\s+(?:персонажа|героя|героини)|(?:for|from)\s+(?:the\s+)?character)\s+(\p{L}[\p{L}'-]*)`)
)

// rule turns normalized text into zero or more modifications.
type rule struct {
	name  string
	apply func(text string) ([]model.Modification, error)
}

// categoryRule fires when a reduce verb and one of its nouns both occur in the text,
// or when a noun directly follows a negationLead.
type categoryRule struct {
	op         model.ModificationType
	categories []taxonomy.Category
	nouns      *regexp.Regexp
	negated    *regexp.Regexp
}

func newCategoryRule(op model.ModificationType, nouns string, categories ...taxonomy.Category) categoryRule {
	return categoryRule{
		op:         op,
		categories: categories,
		nouns:      compile(wordStart + `(?:` + nouns + `)`),
		negated:    compile(negationLead + `(?:` + nouns + `)`),
	}
}

var categoryRules = []categoryRule{
	newCategoryRule(model.ModReduceViolence,
		`violen\p{L}*|fight\p{L}*|brawl\p{L}*|beatings?|combat|shoot\p{L}*|murder\p{L}*|kill\p{L}*|`+
			`насили\p{L}*|драк\p{L}*|драч\p{L}*|избиени\p{L}*|убийств\p{L}*|стрельб\p{L}*|перестрелк\p{L}*`,
		taxonomy.Violence),
	newCategoryRule(model.ModReduceProfanity,
		`profan\p{L}*|swear\p{L}*|curs(?:e|es|ed|ing)`+wordEnd+`|obscen\p{L}*|(?:bad|foul|strong|crude)\s+language|expletive\p{L}*|f-words?|`+
			`мат(?:а|ом|ы|ов|ерщин\p{L}*|ерн\p{L}*|ерк\p{L}*)?`+wordEnd+`|ругатель\p{L}*|руга\p{L}*|бран(?:ь|и|ью)`+wordEnd+`|нецензурн\p{L}*|сквернослов\p{L}*`,
		taxonomy.Profanity),
	newCategoryRule(model.ModReduceGore,
		`gore|gory|blood\p{L}*|injur\p{L}*|mutilat\p{L}*|dismember\p{L}*|wounds?|`+
			`кров(?:ь|и|ью|ав\p{L}*|ищ\p{L}*|опролит\p{L}*|ян\p{L}*)`+wordEnd+`|увеч\p{L}*|жесток\p{L}*|расчлен\p{L}*|ранени\p{L}*`,
		taxonomy.Gore),
	newCategoryRule(model.ModReduceDrugs,
		`drugs?`+wordEnd+`|narcotic\p{L}*|alcohol\p{L}*|drinking|smok\p{L}*|cigarette\p{L}*|cocaine|heroin|weed|`+
			`наркот\p{L}*|алкогол\p{L}*|курени\p{L}*|курит\p{L}*|сигарет\p{L}*|выпивк\p{L}*|пьянств\p{L}*`,
		taxonomy.Drugs),
	newCategoryRule(model.ModReduceSexual,
		`sex\p{L}*|nud\p{L}*|naked\p{L}*|erotic\p{L}*|intima\p{L}*|`+
			`секс\p{L}*|нагот\p{L}*|обнаж\p{L}*|эроти\p{L}*|постельн\p{L}*|интим\p{L}*`,
		taxonomy.SexAct, taxonomy.Nudity),
}

// defaultRules is the ordered rule table. Every rule sees the same input; none of them
// suppresses another.
func defaultRules() []rule {
	rules := []rule{{name: string(model.ModRemoveScenes), apply: removeScenes}}
	for _, cr := range categoryRules {
		rules = append(rules, rule{name: string(cr.op), apply: cr.apply})
	}
	return rules
}

func removeScenes(text string) ([]model.Modification, error) {
	matches := sceneRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil, nil
	}

	var ids []int
	for _, loc := range matches {
		span, err := sceneSpan(text, loc)
		if err != nil {
			return nil, err
		}
		ids = append(ids, span...)

		rest := text[loc[1]:]
		for more := sceneMoreRe.FindStringSubmatchIndex(rest); more != nil; more = sceneMoreRe.FindStringSubmatchIndex(rest) {
			span, err := sceneSpan(rest, more)
			if err != nil {
				return nil, err
			}
			ids = append(ids, span...)
			rest = rest[more[1]:]
		}
	}
	slices.Sort(ids)
	ids = slices.Compact(ids)

	return []model.Modification{{
		Type:   model.ModRemoveScenes,
		Params: map[string]any{model.ParamSceneIDs: ids},
		Scope:  slices.Clone(ids),
	}}, nil
}

// sceneSpan expands the range captured at loc (groups 1 and 2 of a scene pattern).
func sceneSpan(text string, loc []int) ([]int, error) {
	start, errStart := strconv.Atoi(text[loc[2]:loc[3]])
	end := start
	var errEnd error
	if loc[4] >= 0 {
		end, errEnd = strconv.Atoi(text[loc[4]:loc[5]])
	}
	if errStart != nil || errEnd != nil || start < 1 || end < start || end > maxSceneNumber || end-start >= maxSceneSpan {
		return nil, apperr.InvalidSceneRange(start, end)
	}
	ids := make([]int, 0, end-start+1)
	for i := 0; i <= end-start; i++ {
		ids = append(ids, start+i)
	}
	return ids, nil
}

func (cr categoryRule) apply(text string) ([]model.Modification, error) {
	if !cr.negated.MatchString(text) && !(reduceVerbRe.MatchString(text) && cr.nouns.MatchString(text)) {
		return nil, nil
	}
	cats := make([]string, len(cr.categories))
	for i, c := range cr.categories {
		cats[i] = string(c)
	}
	return []model.Modification{{
		Type:    cr.op,
		Params:  map[string]any{model.ParamCategories: cats},
		Targets: characterTargets(text),
	}}, nil
}

func characterTargets(text string) *model.Targets {
	if m := namedCharacterRe.FindStringSubmatch(text); m != nil {
		return &model.Targets{
			EntityType:  "character",
			EntityNames: []string{cases.Title(language.Und).String(m[1])},
		}
	}
	if allCharactersRe.MatchString(text) {
		return &model.Targets{EntityType: "all"}
	}
	return nil
}
