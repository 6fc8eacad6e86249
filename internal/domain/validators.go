package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var scoreRegex = regexp.MustCompile(`^(\d{1,2}-\d{1,2}(\(\d+\))?\s*)+$|^(W/O|RET|DEF|ABD)`)

// maxFutureDate bounds how far ahead a "completed" match date may sit; feeds
// occasionally deliver matches stamped with the tournament's final day.
const maxFutureDays = 7

// ValidateMatch checks a match before insert. Critical violations return an
// INVALID_DATA error and the match must be rejected; soft issues come back as
// warnings and the match is accepted. Both are recorded to the validation log.
func ValidateMatch(m *Match, now time.Time) ([]string, error) {
	if m.ID == "" {
		return nil, ErrInvalidData("match id is required")
	}
	if m.WinnerID == 0 || m.LoserID == 0 {
		return nil, ErrInvalidData(fmt.Sprintf("match %s has missing player id (winner=%d loser=%d)", m.ID, m.WinnerID, m.LoserID))
	}
	if m.WinnerID == m.LoserID {
		return nil, ErrInvalidData(fmt.Sprintf("match %s has winner == loser (%d)", m.ID, m.WinnerID))
	}
	if m.Date.IsZero() {
		return nil, ErrInvalidData(fmt.Sprintf("match %s has no date", m.ID))
	}
	if m.Date.After(now.AddDate(0, 0, maxFutureDays)) {
		return nil, ErrInvalidData(fmt.Sprintf("match %s dated %s is too far in the future", m.ID, m.Date.Format("2006-01-02")))
	}

	var warnings []string
	if strings.TrimSpace(m.Tournament) == "" {
		warnings = append(warnings, "missing tournament name")
	}
	if m.Surface == SurfaceUnknown {
		warnings = append(warnings, "missing or unrecognized surface")
	}
	if m.Score != "" && !scoreRegex.MatchString(m.Score) {
		warnings = append(warnings, fmt.Sprintf("nonstandard score %q", m.Score))
	}
	return warnings, nil
}

// ValidateOdds checks a decimal price is usable.
func ValidateOdds(odds float64) error {
	if odds <= 1.0 {
		return ErrInvalidData(fmt.Sprintf("decimal odds must exceed 1.0, got %.2f", odds))
	}
	if odds > 1000 {
		return ErrInvalidData(fmt.Sprintf("decimal odds %.2f out of range", odds))
	}
	return nil
}

// ValidateBet checks a bet before insert.
func ValidateBet(b *Bet) error {
	if b.Selection == "" {
		return ErrInvalidData("bet selection is required")
	}
	if b.Description == "" {
		return ErrInvalidData("bet match description is required")
	}
	if b.Stake <= 0 {
		return ErrInvalidData(fmt.Sprintf("bet stake must be positive, got %.2f", b.Stake))
	}
	if err := ValidateOdds(b.Odds); err != nil {
		return err
	}
	if b.OurProbability < 0 || b.OurProbability > 1 {
		return ErrInvalidData(fmt.Sprintf("our probability %.3f out of [0,1]", b.OurProbability))
	}
	return nil
}
