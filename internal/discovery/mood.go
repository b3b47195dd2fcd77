// Package discovery подбирает элементы каталога по настроению.
package discovery

import "github.com/ignatzorin/deevah-backend/internal/domain/valueobject"

// Tagged элемент каталога с тегами настроения.
type Tagged interface {
	Tags() []string
}

// FilterByMood возвращает элементы, у которых среди тегов есть mood, сохраняя порядок.
// При mood == nil возвращается исходный список. Входной срез не изменяется.
func FilterByMood[T Tagged](items []T, mood *valueobject.Mood) []T {
	if mood == nil {
		return items
	}

	filtered := make([]T, 0, len(items))
	for _, item := range items {
		if hasTag(item.Tags(), string(*mood)) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
