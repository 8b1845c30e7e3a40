package detector

import (
	"context"
	"sort"

	"github.com/dakshscra/scra/internal/domain"
)

// PlatformDetector implements domain.PlatformDetector. A platform is present
// when at least one file under the root matches its file types; the common
// platform is never reported since it applies to every run.
type PlatformDetector struct {
	classifier domain.FileClassifier
}

func New(classifier domain.FileClassifier) *PlatformDetector {
	return &PlatformDetector{classifier: classifier}
}

func (d *PlatformDetector) Detect(ctx context.Context, reg *domain.Registry, root string) ([]string, error) {
	var candidates []domain.Platform
	for _, p := range reg.Platforms {
		if p.Name != domain.CommonPlatform {
			candidates = append(candidates, p)
		}
	}

	c, err := d.classifier.Classify(ctx, candidates, root, false)
	if err != nil {
		return nil, err
	}

	var present []string
	for _, name := range c.Platforms {
		if len(c.PerPlatform[name]) > 0 {
			present = append(present, name)
		}
	}
	sort.Strings(present)
	return present, nil
}
