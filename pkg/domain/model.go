package domain

import "strings"

type Model struct {
	Name string `json:"name" yaml:"name"`
	ID   string `json:"id" yaml:"id"`
}

// DefaultModels is the built-in catalog offered when config lists none.
func DefaultModels() []Model {
	return []Model{
		{Name: "Flux Schnell", ID: "black-forest-labs/flux-schnell"},
		{Name: "Recraft-v3", ID: "recraft-ai/recraft-v3"},
		{Name: "Imagen 3", ID: "google/imagen-3"},
		{Name: "Ideogram-v2a-turbo", ID: "ideogram-ai/ideogram-v2a-turbo"},
		{Name: "Byte Dance SDXL", ID: "bytedance/sdxl-lightning-4step:6f7a773af6fc3e8de9d5a3c00be77c17308914bf67772726aff83496ba1e3bbe"},
		{Name: "Imagen 3 Fast", ID: "google/imagen-3-fast"},
		{Name: "Luma Photon Flash", ID: "luma/photon-flash"},
	}
}

// FindModel looks a model up by display name, case-insensitively.
func FindModel(models []Model, name string) (Model, bool) {
	name = strings.TrimSpace(name)
	for _, m := range models {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Model{}, false
}
