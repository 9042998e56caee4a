package field

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/cloudconsole/internal/schema"
	"github.com/matthewbaird/cloudconsole/internal/types"
)

var regions = schema.Field{
	Key:             "regionList",
	Label:           "Regions",
	Type:            schema.KindMultiSelect,
	Options:         []string{"global", "us-east-1", "eu-west-1", "cn-north-1"},
	DisabledOptions: []string{"cn-north-1"},
}

var credType = schema.Field{
	Key:             "credentialType",
	Label:           "Credential Type",
	Type:            schema.KindSelect,
	Required:        true,
	Options:         []string{"ACCESS_KEY", "ASSUME_ROLE"},
	DisabledOptions: []string{"ASSUME_ROLE"},
}

func renderer(t *testing.T, k schema.Kind) Renderer {
	t.Helper()
	r, err := For(k)
	require.NoError(t, err)
	return r
}

func TestFor_CoversEveryKind(t *testing.T) {
	for _, k := range schema.Kinds {
		_, err := For(k)
		assert.NoError(t, err, k)
	}
	_, err := For("slider")
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	f := schema.Field{Key: "name", Label: "Account Name", Type: schema.KindText}
	r := renderer(t, schema.KindText)

	c := r.Render(f, "prod", "bad")
	assert.Equal(t, "text", c.InputType)
	assert.Equal(t, "prod", c.Value)
	assert.Equal(t, "bad", c.Error)
	assert.Equal(t, "name", c.WritePath)

	v, err := r.Apply(f, "prod", Input{Op: OpSet, Value: "dev"})
	require.NoError(t, err)
	assert.Equal(t, "dev", v)

	_, err = r.Apply(f, "prod", Input{Op: OpToggle})
	assert.ErrorIs(t, err, ErrUnsupportedInput)
}

func TestPassword(t *testing.T) {
	f := schema.Field{Key: "credentials.secretAccessKey", Label: "Secret", Type: schema.KindPassword}
	r := renderer(t, schema.KindPassword)
	c := r.Render(f, "s", "")
	assert.Equal(t, "password", c.InputType)
	assert.Equal(t, types.MaskedSecret, c.Value)
	assert.Equal(t, "", r.Render(f, "", "").Value)

	v, err := r.Apply(f, "", Input{Op: OpSet, Value: "s2"})
	require.NoError(t, err)
	assert.Equal(t, "s2", v)

	v, err = r.Apply(f, "stored", Input{Op: OpSet, Value: types.MaskedSecret})
	require.NoError(t, err)
	assert.Equal(t, "stored", v)
}

func TestSelect(t *testing.T) {
	r := renderer(t, schema.KindSelect)

	c := r.Render(credType, "ACCESS_KEY", "")
	require.Len(t, c.Options, 3)
	assert.Equal(t, Option{Value: "", Label: SelectPlaceholder}, c.Options[0])
	assert.True(t, c.Options[1].Selected)
	assert.True(t, c.Options[2].Disabled)
	assert.True(t, c.Required)

	v, err := r.Apply(credType, "ACCESS_KEY", Input{Op: OpSet, Value: ""})
	require.NoError(t, err)
	assert.Equal(t, "", v)

	_, err = r.Apply(credType, "", Input{Op: OpSet, Value: "ASSUME_ROLE"})
	assert.ErrorIs(t, err, ErrInvalidOption)
	_, err = r.Apply(credType, "", Input{Op: OpSet, Value: "OTHER"})
	assert.ErrorIs(t, err, ErrInvalidOption)
}

func TestMultiSelect_Toggle(t *testing.T) {
	r := renderer(t, schema.KindMultiSelect)
	current := []string{"global", "us-east-1"}

	v, err := r.Apply(regions, current, Input{Op: OpToggle, Value: "eu-west-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"global", "us-east-1", "eu-west-1"}, v)

	v, err = r.Apply(regions, current, Input{Op: OpToggle, Value: "us-east-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"global"}, v)
	assert.Equal(t, []string{"global", "us-east-1"}, current)

	_, err = r.Apply(regions, current, Input{Op: OpToggle, Value: "cn-north-1"})
	assert.ErrorIs(t, err, ErrInvalidOption)

	v, err = r.Apply(regions, nil, Input{Op: OpSet, Values: []string{"eu-west-1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"eu-west-1"}, v)

	c := r.Render(regions, []any{"global", "eu-west-1"}, "")
	assert.Equal(t, []string{"global", "eu-west-1"}, c.Values)
	assert.True(t, c.Options[2].Selected)
	assert.True(t, c.Options[3].Disabled)
}

func TestSwitch(t *testing.T) {
	f := schema.Field{Key: "eventProcessEnabled", Type: schema.KindSwitch}
	r := renderer(t, schema.KindSwitch)

	assert.True(t, r.Render(f, true, "").Checked)
	assert.False(t, r.Render(f, nil, "").Checked)

	v, err := r.Apply(f, true, Input{Op: OpToggle})
	require.NoError(t, err)
	assert.Equal(t, false, v)

	v, err = r.Apply(f, nil, Input{Op: OpToggle})
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = r.Apply(f, false, Input{Op: OpSet, Value: "true"})
	require.NoError(t, err)
	assert.Equal(t, true, v)

	_, err = r.Apply(f, false, Input{Op: OpSet, Value: "maybe"})
	assert.Error(t, err)
}

func TestTags(t *testing.T) {
	f := schema.Field{Key: "cloudGroupName", Type: schema.KindTags}
	r := renderer(t, schema.KindTags)

	v, err := r.Apply(f, nil, Input{Op: OpCommit, Value: "  team-a "})
	require.NoError(t, err)
	assert.Equal(t, []string{"team-a"}, v)

	v, err = r.Apply(f, v, Input{Op: OpCommit, Value: "   "})
	require.NoError(t, err)
	assert.Equal(t, []string{"team-a"}, v)

	v, err = r.Apply(f, []string{"a", "b", "c"}, Input{Op: OpRemove, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, v)

	_, err = r.Apply(f, []string{"a"}, Input{Op: OpRemove, Index: 4})
	assert.ErrorIs(t, err, ErrUnsupportedInput)

	_, err = r.Apply(f, nil, Input{Op: OpSet, Value: "x"})
	assert.ErrorIs(t, err, ErrUnsupportedInput)

	assert.Equal(t, []string{"a"}, r.Render(f, []any{"a"}, "").Values)
}
