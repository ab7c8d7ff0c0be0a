package models

// Choice is a stored value with its display label, used to render selects and
// to validate submissions server-side.
type Choice struct {
	Value string
	Label string
}

// PositionChoices lists the openings. The portal currently recruits for a
// single position.
var PositionChoices = []Choice{
	{Value: "agent", Label: "Agent"},
}

// StateChoices lists the 36 Nigerian states plus the FCT.
var StateChoices = []Choice{
	{Value: "abia", Label: "Abia"},
	{Value: "adamawa", Label: "Adamawa"},
	{Value: "akwa_ibom", Label: "Akwa Ibom"},
	{Value: "anambra", Label: "Anambra"},
	{Value: "bauchi", Label: "Bauchi"},
	{Value: "bayelsa", Label: "Bayelsa"},
	{Value: "benue", Label: "Benue"},
	{Value: "borno", Label: "Borno"},
	{Value: "cross_river", Label: "Cross River"},
	{Value: "delta", Label: "Delta"},
	{Value: "ebonyi", Label: "Ebonyi"},
	{Value: "edo", Label: "Edo"},
	{Value: "ekiti", Label: "Ekiti"},
	{Value: "enugu", Label: "Enugu"},
	{Value: "fct", Label: "Federal Capital Territory"},
	{Value: "gombe", Label: "Gombe"},
	{Value: "imo", Label: "Imo"},
	{Value: "jigawa", Label: "Jigawa"},
	{Value: "kaduna", Label: "Kaduna"},
	{Value: "kano", Label: "Kano"},
	{Value: "katsina", Label: "Katsina"},
	{Value: "kebbi", Label: "Kebbi"},
	{Value: "kogi", Label: "Kogi"},
	{Value: "kwara", Label: "Kwara"},
	{Value: "lagos", Label: "Lagos"},
	{Value: "nasarawa", Label: "Nasarawa"},
	{Value: "niger", Label: "Niger"},
	{Value: "ogun", Label: "Ogun"},
	{Value: "ondo", Label: "Ondo"},
	{Value: "osun", Label: "Osun"},
	{Value: "oyo", Label: "Oyo"},
	{Value: "plateau", Label: "Plateau"},
	{Value: "rivers", Label: "Rivers"},
	{Value: "sokoto", Label: "Sokoto"},
	{Value: "taraba", Label: "Taraba"},
	{Value: "yobe", Label: "Yobe"},
	{Value: "zamfara", Label: "Zamfara"},
}

// ChoiceValues returns just the stored values, for validating submissions
// against the list.
func ChoiceValues(choices []Choice) []string {
	vals := make([]string, len(choices))
	for i, c := range choices {
		vals[i] = c.Value
	}
	return vals
}

// ChoiceLabel returns the display label for a stored value, or the value
// itself when unknown (old rows should still render).
func ChoiceLabel(choices []Choice, v string) string {
	for _, c := range choices {
		if c.Value == v {
			return c.Label
		}
	}
	return v
}
