package service

import "fmt"

// Views are always generated and stored in this order
var AvatarViews = []string{"front", "side", "back", "three-quarter"}

var toneDescriptions = map[string]string{
	"fair-cool":     "fair cool undertone",
	"light-neutral": "light neutral undertone",
	"medium-warm":   "medium warm golden undertone",
	"tan-golden":    "tan golden undertone",
	"brown-neutral": "brown neutral undertone",
	"deep-cool":     "deep cool undertone",
}

// DescribeTone maps a skin tone code to prompt text. Unknown codes are
// used as they are.
func DescribeTone(code string) string {
	if d, ok := toneDescriptions[code]; ok {
		return d
	}

	return code
}

func baseDescription(gender, skinTone string) string {
	return fmt.Sprintf("%s adult, %s, neutral facial expression, natural lighting, standing, "+
		"plain gray seamless backdrop, highly photorealistic, DSLR look, 85mm lens, "+
		"detailed skin texture, natural hair, minimal neutral clothing", gender, DescribeTone(skinTone))
}

// ViewPrompts builds one prompt per view
func ViewPrompts(gender, skinTone string) map[string]string {
	base := baseDescription(gender, skinTone)

	return map[string]string{
		"front":         fmt.Sprintf("Full body front view portrait, %s, looking directly at camera, arms at sides, centered composition", base),
		"side":          fmt.Sprintf("Full body side profile view, %s, looking to the side, perfect side angle, arms at sides, centered composition", base),
		"back":          fmt.Sprintf("Full body back view portrait, %s, facing away from camera, showing back and shoulders, arms at sides, centered composition", base),
		"three-quarter": fmt.Sprintf("Full body three-quarter view portrait, %s, turned 45 degrees, looking slightly to the side, arms at sides, centered composition", base),
	}
}
