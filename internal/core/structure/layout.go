package structure

import "github.com/Ning0612/storeopt/internal/domain"

// DefaultBuckets is the canonical target layout
func DefaultBuckets() map[string]domain.ProposedBucket {
	return map[string]domain.ProposedBucket{
		domain.BucketCore: {
			Description: "Essential project files",
			Contents:    []string{"src/", "lib/", "bin/", "package.json", "README.md"},
		},
		domain.BucketData: {
			Description: "Project data and databases",
			Contents:    []string{"case_database/", "system_reports/", "analysis_reports/"},
		},
		domain.BucketBackups: {
			Description: "Compressed backups",
			Contents:    []string{"backups/", "archives/"},
		},
		domain.BucketCache: {
			Description: "Temporary and cache files",
			Contents:    []string{".cache/", "temp/"},
		},
		domain.BucketCloudSync: {
			Description: "Cloud storage synchronization",
			Contents:    []string{"multi_cloud_storage/", "icloud_cache/"},
		},
		domain.BucketLogs: {
			Description: "Log files",
			Contents:    []string{"logs/"},
		},
	}
}

// DefaultMigrationSteps is the advisory order of remediation
func DefaultMigrationSteps() []string {
	return []string{
		"Identify and remove duplicate files",
		"Compress suitable files using gzip",
		"Organize files into logical structure",
		"Offload backup/cache files to secondary storage",
		"Clean up temporary files",
		"Verify integrity of optimized structure",
	}
}
