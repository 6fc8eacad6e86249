// Package classify derives court surface and tournament tier from tournament
// names. Classification is keyword-driven and case-insensitive; it never
// consults external state.
package classify

import (
	"regexp"
	"strings"
	"time"

	"github.com/attaboy/matchedge/internal/domain"
)

// grandSlams pin their canonical surface regardless of year.
var grandSlams = []struct {
	keywords []string
	surface  domain.Surface
}{
	{[]string{"australian open"}, domain.SurfaceHard},
	{[]string{"roland garros", "french open"}, domain.SurfaceClay},
	{[]string{"wimbledon"}, domain.SurfaceGrass},
	{[]string{"us open", "u.s. open"}, domain.SurfaceHard},
}

// masters1000 is the named Masters set. Checked after Grand Slams.
var masters1000 = []string{
	"indian wells", "miami", "monte carlo", "monte-carlo", "madrid",
	"rome", "italian open", "canada", "canadian open", "montreal", "toronto",
	"cincinnati", "shanghai", "paris masters", "paris-bercy",
}

var mastersClay = map[string]bool{
	"monte carlo": true, "monte-carlo": true, "madrid": true,
	"rome": true, "italian open": true,
}

var (
	womensITFRegex = regexp.MustCompile(`\bW(15|25|40|60|80|100)\b`)
	mensITFRegex   = regexp.MustCompile(`\bM(15|25)\b`)
	mensTokenRegex = regexp.MustCompile(`\bmen'?s?\b`)
)

var surfaceKeywords = []struct {
	keyword string
	surface domain.Surface
}{
	{"clay", domain.SurfaceClay},
	{"grass", domain.SurfaceGrass},
	{"carpet", domain.SurfaceCarpet},
	{"hard", domain.SurfaceHard},
	{"indoor", domain.SurfaceHard},
}

// Tournament classifies a tournament name into its surface and tier. The date
// is accepted for parity with callers that carry it but does not currently
// alter classification. Unknown surfaces come back as SurfaceUnknown; the
// caller decides whether to default.
func Tournament(name string, _ time.Time) (domain.Surface, domain.Level) {
	lower := strings.ToLower(name)

	for _, gs := range grandSlams {
		for _, kw := range gs.keywords {
			if strings.Contains(lower, kw) {
				return gs.surface, domain.LevelGrandSlam
			}
		}
	}

	for _, m := range masters1000 {
		if strings.Contains(lower, m) {
			surface := domain.SurfaceHard
			if mastersClay[m] {
				surface = domain.SurfaceClay
			}
			if s := surfaceFromName(lower); s != domain.SurfaceUnknown {
				surface = s
			}
			return surface, domain.LevelMasters
		}
	}

	level := levelFromName(name, lower)
	return surfaceFromName(lower), level
}

func levelFromName(name, lower string) domain.Level {
	womens := womensITFRegex.MatchString(name) ||
		strings.Contains(lower, "women") || strings.Contains(lower, "ladies")

	switch {
	case strings.Contains(lower, "challenger"):
		return domain.LevelChallenger
	case strings.Contains(lower, "itf") || strings.Contains(lower, "futures") ||
		womensITFRegex.MatchString(name) || itfMoneyCode(name):
		return domain.LevelITF
	case strings.Contains(lower, "wta") || womens:
		return domain.LevelWTA
	case strings.Contains(lower, "atp") || strings.Contains(lower, "open") ||
		strings.Contains(lower, "championships") || strings.Contains(lower, "cup"):
		if womens {
			return domain.LevelWTA
		}
		return domain.LevelATP
	}
	return domain.LevelOther
}

// itfMoneyCode catches men's ITF naming like "M15 Antalya" / "M25 Nottingham".
func itfMoneyCode(name string) bool {
	return mensITFRegex.MatchString(name)
}

func surfaceFromName(lower string) domain.Surface {
	for _, sk := range surfaceKeywords {
		if strings.Contains(lower, sk.keyword) {
			return sk.surface
		}
	}
	return domain.SurfaceUnknown
}

// KFactor maps a tier to the Elo K used in the rolling performance
// recomputation. Higher-importance events move the rating more.
func KFactor(level domain.Level) float64 {
	switch level {
	case domain.LevelGrandSlam:
		return 48
	case domain.LevelATP, domain.LevelMasters:
		return 32
	case domain.LevelWTA:
		return 28
	case domain.LevelChallenger:
		return 24
	case domain.LevelITF:
		return 20
	default:
		return 24
	}
}

// IsWomens reports whether the tournament name identifies a women's event,
// used by tour inference.
func IsWomens(name string) bool {
	lower := strings.ToLower(name)
	return womensITFRegex.MatchString(name) ||
		strings.Contains(lower, "wta") ||
		strings.Contains(lower, "women") || strings.Contains(lower, "ladies")
}

// IsMens reports whether the tournament name explicitly identifies a men's
// event. Absence of both signals is ambiguous, not men's.
func IsMens(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "atp") ||
		itfMoneyCode(name) ||
		mensTokenRegex.MatchString(lower)
}
