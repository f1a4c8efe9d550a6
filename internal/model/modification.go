package model

import "encoding/json"

// ModificationType is the kind of edit the rating engine applies during a what-if simulation.
type ModificationType string

const (
	ModRemoveScenes    ModificationType = "remove_scenes"
	ModReduceViolence  ModificationType = "reduce_violence"
	ModReduceProfanity ModificationType = "reduce_profanity"
	ModReduceGore      ModificationType = "reduce_gore"
	ModReduceDrugs     ModificationType = "reduce_drugs"
	ModReduceSexual    ModificationType = "reduce_sexual"
)

// Param keys used by the interpreter.
const (
	ParamSceneIDs   = "scene_ids"
	ParamCategories = "categories"
)

// Targets narrows a modification to specific entities (characters, for now).
type Targets struct {
	EntityType  string   `json:"entity_type,omitempty"`
	EntityNames []string `json:"entity_names,omitempty"`
}

// Modification is one structured, machine-applicable edit instruction.
// Values are built once by the interpreter and passed to the engine as-is.
type Modification struct {
	Type    ModificationType `json:"type"`
	Params  map[string]any   `json:"params"`
	Targets *Targets         `json:"targets,omitempty"`
	Scope   []int            `json:"scope,omitempty"`
}

// SceneIDs returns the scene ids carried by a remove_scenes modification. It reads both
// the interpreter's []int and the []any of numbers a JSON round trip leaves behind.
func (m Modification) SceneIDs() []int {
	switch v := m.Params[ParamSceneIDs].(type) {
	case []int:
		return v
	case []any:
		ids := make([]int, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case float64:
				ids = append(ids, int(n))
			case int:
				ids = append(ids, n)
			case int64:
				ids = append(ids, int(n))
			case json.Number:
				if i, err := n.Int64(); err == nil {
					ids = append(ids, int(i))
				}
			}
		}
		return ids
	}
	return nil
}

// Categories returns the category keys carried by a reduce_* modification.
func (m Modification) Categories() []string {
	switch v := m.Params[ParamCategories].(type) {
	case []string:
		return v
	case []any:
		cats := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				cats = append(cats, s)
			}
		}
		return cats
	}
	return nil
}
