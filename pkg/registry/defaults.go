package registry

const (
	TaskPickRandomTitle = "pick-random-title"
	TaskEnrichTitle     = "enrich-title"
	TaskListGenres      = "list-genres"
	TaskClearSelection  = "clear-selection"
)

func categoryProperty() map[string]interface{} {
	enum := make([]interface{}, 0, 3)
	for _, c := range mediaCategories() {
		enum = append(enum, c)
	}
	return map[string]interface{}{"type": "string", "enum": enum}
}

func mediaCategories() []string {
	return []string{"movie", "series", "anime"}
}

// Default is the registry shipped with the binary.
func Default() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: "2026-10-01T00:00:00Z",
		Activities: []Activity{
			{
				ID:                   TaskPickRandomTitle,
				DisplayName:          "Pick Random Title",
				Description:          "Samples discover pages and picks one well-rated title with certification and watch providers",
				Category:             "discovery",
				Version:              "1.0.0",
				TaskType:             TaskPickRandomTitle,
				ImplementationStatus: StatusCompleted,
				MediaCategories:      mediaCategories(),
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"category"},
					"properties": map[string]interface{}{
						"category":         categoryProperty(),
						"pagesToSearch":    map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 20},
						"maxAttempts":      map[string]interface{}{"type": "integer", "minimum": 1, "maximum": 10},
						"requireStreaming": map[string]interface{}{"type": "boolean"},
						"providerIds": map[string]interface{}{
							"type":  "array",
							"items": map[string]interface{}{"type": "integer"},
						},
						"owner": map[string]interface{}{"type": "string", "maxLength": 128},
					},
				},
				OutputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"status", "runId"},
				},
				ErrorCodes: []string{"INVALID_INPUT", "INVALID_CATEGORY"},
				Timeout:    "30s",
				Retries:    0,
				Workflows:  []string{"movie-night"},
				Tags:       []string{"tmdb", "random"},
			},
			{
				ID:                   TaskEnrichTitle,
				DisplayName:          "Enrich Title",
				Description:          "Resolves details, certification and watch providers for a known title id",
				Category:             "discovery",
				Version:              "1.0.0",
				TaskType:             TaskEnrichTitle,
				ImplementationStatus: StatusCompleted,
				MediaCategories:      mediaCategories(),
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"category", "id"},
					"properties": map[string]interface{}{
						"category": categoryProperty(),
						"id":       map[string]interface{}{"type": "integer", "minimum": 1},
					},
				},
				OutputSchema: map[string]interface{}{"type": "object"},
				ErrorCodes:   []string{"INVALID_INPUT", "INVALID_CATEGORY", "DETAILS_LOOKUP_FAILED"},
				Timeout:      "20s",
				Retries:      1,
				Workflows:    []string{"movie-night"},
				Tags:         []string{"tmdb"},
			},
			{
				ID:                   TaskListGenres,
				DisplayName:          "List Genres",
				Description:          "Returns the genre id to name map for a category",
				Category:             "discovery",
				Version:              "1.0.0",
				TaskType:             TaskListGenres,
				ImplementationStatus: StatusCompleted,
				MediaCategories:      mediaCategories(),
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"category"},
					"properties": map[string]interface{}{
						"category": categoryProperty(),
					},
				},
				OutputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"genres"},
				},
				ErrorCodes: []string{"INVALID_INPUT", "METADATA_REQUEST_FAILED"},
				Timeout:    "10s",
				Retries:    3,
				Workflows:  []string{"movie-night"},
				Tags:       []string{"tmdb", "genres"},
			},
			{
				ID:                   TaskClearSelection,
				DisplayName:          "Clear Selection",
				Description:          "Cancels in-flight picks and forgets the published results of an owner",
				Category:             "discovery",
				Version:              "1.0.0",
				TaskType:             TaskClearSelection,
				ImplementationStatus: StatusCompleted,
				MediaCategories:      mediaCategories(),
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"owner"},
					"properties": map[string]interface{}{
						"owner":    map[string]interface{}{"type": "string", "minLength": 1, "maxLength": 128},
						"category": categoryProperty(),
					},
				},
				OutputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"owner", "cleared"},
				},
				ErrorCodes: []string{"INVALID_INPUT", "INVALID_CATEGORY"},
				Timeout:    "5s",
				Retries:    0,
				Workflows:  []string{"movie-night"},
				Tags:       []string{"session"},
			},
		},
	}
}
