package result

import (
	"strings"
	"unicode"

	"github.com/promo-claim/internal/domain"
)

// Source names where a View came from.
type Source string

const (
	SourceTransient Source = "transient"
	SourceDurable   Source = "durable"
	SourceDefault   Source = "default"
)

// View is what the result page renders.
type View struct {
	PrizeName string `json:"prizeName"`
	PhotoURL  string `json:"photoUrl,omitempty"`
	ImagePath string `json:"imagePath,omitempty"`
	Source    Source `json:"source"`
}

// Resolve picks the freshest result: the navigation-time result when it
// carries a prize, else the durable record, else the thanks view.
func Resolve(transient *domain.ClaimResult, durable *domain.RecoveryRecord) View {
	switch {
	case transient != nil && strings.TrimSpace(transient.PrizeName) != "":
		return newView(transient.PrizeName, transient.PhotoURL, SourceTransient)
	case durable != nil && strings.TrimSpace(durable.PrizeName) != "":
		return newView(durable.PrizeName, durable.PhotoURL, SourceDurable)
	default:
		return newView(domain.ThanksForParticipating, "", SourceDefault)
	}
}

func newView(prize, photoURL string, src Source) View {
	return View{PrizeName: prize, PhotoURL: photoURL, ImagePath: ImagePath(prize), Source: src}
}

// ImagePath maps a prize name to its artwork: "Bola de playa" becomes
// "/bola_de_playa.png". The thanks sentinel has no artwork.
func ImagePath(prize string) string {
	prize = strings.TrimSpace(prize)
	if prize == "" || prize == domain.ThanksForParticipating {
		return ""
	}
	var b strings.Builder
	b.WriteByte('/')
	space := false
	for _, r := range strings.ToLower(prize) {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte('_')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	b.WriteString(".png")
	return b.String()
}
