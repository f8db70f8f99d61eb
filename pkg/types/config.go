package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "gramps-faker/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FacesConfig holds settings for the face-fetching stage.
type FacesConfig struct {
	HTTPConfig `yaml:",inline"`

	// FetchDelay is the delay between consecutive endpoint requests (default 0).
	FetchDelay time.Duration `json:"fetch_delay" yaml:"fetch_delay"`

	// ImagesDir is the base directory for fetched images (contains
	// people/color/ and people/grayscale/).
	ImagesDir string `json:"images_dir" yaml:"images_dir"`
}

// PhotosConfig holds settings for the stock-photo stage.
type PhotosConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is the Pexels API key sent in the Authorization header.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// FetchDelay is the delay between consecutive photo downloads (default 0).
	FetchDelay time.Duration `json:"fetch_delay" yaml:"fetch_delay"`

	// ImagesDir is the base directory for fetched images (contains
	// <query>/color/ and <query>/grayscale/).
	ImagesDir string `json:"images_dir" yaml:"images_dir"`
}

// TreeConfig holds settings for the tree-generation stage.
type TreeConfig struct {
	// Generations bounds the depth of ancestor recursion (default 6).
	Generations int `json:"generations" yaml:"generations"`

	// Places is the number of place records to invent (default 50).
	Places int `json:"places" yaml:"places"`

	// Seed seeds the random source; 0 seeds from the clock.
	Seed uint64 `json:"seed" yaml:"seed"`

	// OutputPath is the Gramps XML file to write (default "random_tree.gramps").
	OutputPath string `json:"output_path" yaml:"output_path"`

	// ImagesDir is the directory scanned recursively for *.jpg files to
	// attach to people, families, and weddings (default ".").
	ImagesDir string `json:"images_dir" yaml:"images_dir"`

	// DBPath is the staging database location; empty means in-memory.
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Tree   TreeConfig   `json:"tree" yaml:"tree"`
	Faces  FacesConfig  `json:"faces" yaml:"faces"`
	Photos PhotosConfig `json:"photos" yaml:"photos"`
}
