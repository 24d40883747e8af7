package config

// File represents the structure of the sift.yaml configuration file.
// Every field is optional; pointers distinguish "unset" from a zero value
// so explicit false/0 settings are respected.
type File struct {
	MaxFileSize             *int64              `yaml:"maxFileSize"`
	ContentHashAlgorithm    *string             `yaml:"contentHashAlgorithm"`
	BatchWindowMs           *int                `yaml:"batchWindowMs"`
	MaxBatchSize            *int                `yaml:"maxBatchSize"`
	MaxConcurrentBatches    *int64              `yaml:"maxConcurrentBatches"`
	MaxProcessingTimeMs     *int                `yaml:"maxProcessingTimeMs"`
	EnableContentComparison *bool               `yaml:"enableContentComparison"`
	EnableImpactAnalysis    *bool               `yaml:"enableImpactAnalysis"`
	Dependencies            map[string][]string `yaml:"dependencies"`
}
