// Package seed provides demo cloud accounts for the record store.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/matthewbaird/cloudconsole/internal/store"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

// Clouds returns the demo records, newest first.
func Clouds() []types.Cloud {
	mock := func(name string, regions ...string) types.Cloud {
		return types.Cloud{
			Provider:            types.ProviderAWS,
			Name:                name,
			CloudGroupName:      []string{"default-group"},
			RegionList:          append([]string{types.GlobalRegion}, regions...),
			EventProcessEnabled: true,
			UserActivityEnabled: true,
			ScheduleScanEnabled: true,
			ScheduleScanSetting: types.ScanSchedule{
				Frequency: types.FrequencyDay,
				Hour:      "01",
				Minute:    "00",
			},
			CredentialType: types.CredentialTypeAccessKey,
			Credentials: types.Credentials{
				AccessKey:       "AKIAEXAMPLEMOCK",
				SecretAccessKey: "MOCKSECRETKEY1234567890",
			},
			EventSource: types.EventSource{CloudTrailName: "mock-trail"},
		}
	}
	return []types.Cloud{
		mock("AWS Account Mock", "us-east-1", "ap-northeast-2"),
		mock("Team A – Prod", "us-west-2"),
	}
}

// Seed loads the demo records into s. If s already holds records it skips
// seeding.
func Seed(ctx context.Context, s store.Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	existing, err := s.List(ctx)
	if err != nil {
		return fmt.Errorf("checking clouds: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("clouds already seeded, skipping", "count", len(existing))
		return nil
	}

	demo := Clouds()
	// Create prepends, so insert oldest first to keep the listed order.
	for i := len(demo) - 1; i >= 0; i-- {
		c, err := s.Create(ctx, demo[i])
		if err != nil {
			return fmt.Errorf("seeding cloud %q: %w", demo[i].Name, err)
		}
		logger.Debug("seeded cloud", "id", c.ID, "name", c.Name)
	}
	logger.Info("clouds seeded", "count", len(demo))
	return nil
}
