package event

import (
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/cloudconsole/internal/types"
)

func TestNewCloudEvents(t *testing.T) {
	c := types.Cloud{
		ID:                  "c1",
		Provider:            types.ProviderAWS,
		Name:                "prod",
		RegionList:          []string{"global", "us-east-1"},
		ScheduleScanEnabled: true,
		ScheduleScanSetting: types.ScanSchedule{Frequency: types.FrequencyDay},
		Credentials:         types.Credentials{AccessKey: "AKIA", SecretAccessKey: "shh"},
	}
	for typ, evt := range map[string]cloudevents.Event{
		TypeCloudCreated: NewCloudCreated(c),
		TypeCloudUpdated: NewCloudUpdated(c),
		TypeCloudDeleted: NewCloudDeleted(c),
	} {
		assert.Equal(t, typ, evt.Type())
	}

	evt := NewCloudCreated(c)
	require.NoError(t, evt.Validate())
	assert.Equal(t, Source, evt.Source())
	assert.Equal(t, "c1", evt.Subject())
	assert.NotEmpty(t, evt.ID())
	assert.NotContains(t, string(evt.Data()), "shh")
	assert.NotContains(t, string(evt.Data()), "AKIA")

	p, err := Payload(evt)
	require.NoError(t, err)
	assert.Equal(t, []string{"us-east-1"}, p.Regions)
	assert.Equal(t, types.FrequencyDay, p.Frequency)
	assert.Equal(t, "prod", p.Name)
}
