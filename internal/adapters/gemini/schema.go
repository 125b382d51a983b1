package gemini

// schema mirrors the structured-output schema object of the
// generativelanguage REST API (an OpenAPI subset).
type schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*schema `json:"properties,omitempty"`
	Items       *schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
}

const (
	typeObject = "OBJECT"
	typeArray  = "ARRAY"
	typeString = "STRING"
	typeNumber = "NUMBER"
)

func axisProperties() map[string]*schema {
	return map[string]*schema{
		"energy":     {Type: typeNumber, Description: "Depleted (-1) to agitated (+1)."},
		"reality":    {Type: typeNumber, Description: "Dissociated (-1) to sharply present (+1)."},
		"temporal":   {Type: typeNumber, Description: "Dwelling on the past (-1) to racing ahead (+1)."},
		"repetition": {Type: typeNumber, Description: "Scattered (-1) to looping thoughts (+1)."},
		"hedonic":    {Type: typeNumber, Description: "Numb (-1) to euphoric (+1)."},
	}
}

var axisRequired = []string{"energy", "reality", "temporal", "repetition", "hedonic"}

func stateSchema() *schema {
	return &schema{
		Type:       typeObject,
		Properties: axisProperties(),
		Required:   axisRequired,
	}
}

// shiftSchema describes a per-axis movement rather than an absolute state,
// so the axis descriptions are not reused.
func shiftSchema(desc string) *schema {
	return &schema{
		Type:        typeObject,
		Description: desc,
		Properties: map[string]*schema{
			"energy":     {Type: typeNumber},
			"reality":    {Type: typeNumber},
			"temporal":   {Type: typeNumber},
			"repetition": {Type: typeNumber},
			"hedonic":    {Type: typeNumber},
		},
		Required: axisRequired,
	}
}

// analysisSchema is the contract of the state-analysis call. The axes and
// summary are always required; voice_analysis is declared only when audio
// was part of the payload.
func analysisSchema(withVoice bool) *schema {
	props := axisProperties()
	props["summary"] = &schema{Type: typeString, Description: "One or two sentences describing the emotional state."}

	s := &schema{
		Type:       typeObject,
		Properties: props,
		Required:   append(append([]string{}, axisRequired...), "summary"),
	}
	if withVoice {
		props["voice_analysis"] = &schema{
			Type: typeObject,
			Properties: map[string]*schema{
				"pitch":     {Type: typeString, Enum: []string{"High", "Low", "Neutral"}},
				"stability": {Type: typeString, Enum: []string{"Stable", "Shaky", "Neutral"}},
				"speed":     {Type: typeString, Enum: []string{"Fast", "Slow", "Neutral"}},
				"note":      {Type: typeString},
			},
			Required: []string{"pitch", "stability", "speed"},
		}
	}
	return s
}

// journeySchema is the contract of the composition call: the song array plus
// the optional narrative summary fields.
func journeySchema() *schema {
	song := &schema{
		Type: typeObject,
		Properties: map[string]*schema{
			"title":            {Type: typeString},
			"artist":           {Type: typeString},
			"target_state":     stateSchema(),
			"therapeutic_note": {Type: typeString, Description: "Why this song sits at this point of the journey."},
			"color_hex":        {Type: typeString, Description: "Display color like #8899AA."},
			"axis_shifts":      shiftSchema("Per-axis movement this song makes relative to the previous one."),
		},
		Required: []string{"title", "artist", "target_state", "therapeutic_note", "color_hex"},
	}
	return &schema{
		Type: typeObject,
		Properties: map[string]*schema{
			"songs":             {Type: typeArray, Items: song},
			"journey_narrative": {Type: typeString},
			"iso_insight":       {Type: typeString},
			"total_shift":       shiftSchema("Per-axis movement from the starting state to the final song."),
		},
		Required: []string{"songs"},
	}
}
