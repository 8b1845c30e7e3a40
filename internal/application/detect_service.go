package application

import (
	"context"
	"fmt"

	"github.com/dakshscra/scra/internal/domain"
)

// allFilesPlatform labels the single list of an all-files classification.
const allFilesPlatform = "all"

// DetectService answers reconnaissance questions about a target before a scan.
type DetectService struct {
	registry   domain.RegistryLoader
	classifier domain.FileClassifier
	detector   domain.PlatformDetector
}

func NewDetectService(registry domain.RegistryLoader, classifier domain.FileClassifier, detector domain.PlatformDetector) *DetectService {
	return &DetectService{registry: registry, classifier: classifier, detector: detector}
}

// DetectPlatforms returns the registered platforms with files under root, sorted.
func (s *DetectService) DetectPlatforms(ctx context.Context, root string) ([]string, error) {
	reg, err := s.registry.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("loading platform registry: %w", err)
	}
	return s.detector.Detect(ctx, reg, root)
}

// Inventory classifies every file under root in all-files mode and tallies
// extensions, alongside the detected platforms.
func (s *DetectService) Inventory(ctx context.Context, root string) (*domain.Inventory, error) {
	abs, err := checkTarget(root)
	if err != nil {
		return nil, err
	}
	platforms, err := s.DetectPlatforms(ctx, abs)
	if err != nil {
		return nil, err
	}

	c, err := s.classifier.Classify(ctx, []domain.Platform{{Name: allFilesPlatform}}, abs, true)
	if err != nil {
		return nil, fmt.Errorf("classifying files: %w", err)
	}
	if platforms == nil {
		platforms = []string{}
	}
	return &domain.Inventory{
		Root:         c.Root,
		FilesPresent: c.FilesPresent,
		Platforms:    platforms,
		Extensions:   domain.CountExtensions(c.Master),
	}, nil
}
