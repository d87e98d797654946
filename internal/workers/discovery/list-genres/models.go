// internal/workers/discovery/list-genres/models.go
package listgenres

type Input struct {
	Category string `json:"category"`
}

type Output struct {
	Category string `json:"category"`
	// Genres is keyed by the decimal genre id; process variables only carry
	// string keys.
	Genres map[string]string `json:"genres"`
}
