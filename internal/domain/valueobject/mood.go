package valueobject

import (
	"strings"

	"github.com/ignatzorin/deevah-backend/internal/pkg/apperror"
)

type Mood string

const (
	MoodCalm    Mood = "calm"
	MoodFast    Mood = "fast"
	MoodSocial  Mood = "social"
	MoodPrivate Mood = "private"
)

func (m Mood) IsValid() bool {
	switch m {
	case MoodCalm, MoodFast, MoodSocial, MoodPrivate:
		return true
	}
	return false
}

// ParseMood разбирает необязательный mood. Пустая строка означает «без фильтра».
func ParseMood(raw string) (*Mood, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return nil, nil
	}
	m := Mood(raw)
	if !m.IsValid() {
		return nil, apperror.Validation("неизвестное настроение: " + raw)
	}
	return &m, nil
}

type LocationType string

const (
	LocationInSalon LocationType = "in_salon"
	LocationAtHome  LocationType = "at_home"
)

func NewLocationType(raw string) (LocationType, error) {
	switch LocationType(raw) {
	case "":
		return LocationInSalon, nil
	case LocationInSalon, LocationAtHome:
		return LocationType(raw), nil
	}
	return "", apperror.Validation("некорректный тип места оказания услуги")
}
