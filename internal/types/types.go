// Package types provides the Go structs for the cloud account records managed by the
// console. JSON keys match the console's wire format, so the same shape is used by the
// schema layer, the JSON API and the record store.
package types

import (
	"fmt"
	"slices"
	"time"

	"github.com/robfig/cron/v3"
)

// ProviderAWS is the only provider wired into the console.
const ProviderAWS = "AWS"

// CredentialTypeAccessKey is the only supported credential type.
const CredentialTypeAccessKey = "ACCESS_KEY"

// GlobalRegion is the sentinel region. It leads every non-empty region list.
const GlobalRegion = "global"

// MaskedSecret replaces secrets in masked copies.
const MaskedSecret = "****"

// Scan frequencies.
const (
	FrequencyHour  = "HOUR"
	FrequencyDay   = "DAY"
	FrequencyWeek  = "WEEK"
	FrequencyMonth = "MONTH"
)

// Cloud is a managed cloud account connection.
type Cloud struct {
	ID                  string       `json:"id,omitempty"`
	Provider            string       `json:"provider"`
	Name                string       `json:"name"`
	CloudGroupName      []string     `json:"cloudGroupName"`
	RegionList          []string     `json:"regionList"`
	ProxyURL            string       `json:"proxyUrl"`
	EventProcessEnabled bool         `json:"eventProcessEnabled"`
	UserActivityEnabled bool         `json:"userActivityEnabled"`
	ScheduleScanEnabled bool         `json:"scheduleScanEnabled"`
	ScheduleScanSetting ScanSchedule `json:"scheduleScanSetting"`
	CredentialType      string       `json:"credentialType"`
	Credentials         Credentials  `json:"credentials"`
	EventSource         EventSource  `json:"eventSource"`
}

// ScanSchedule holds the scheduled scan setting. Only the sub-fields relevant to
// Frequency are meaningful.
type ScanSchedule struct {
	Frequency string `json:"frequency"`
	Minute    string `json:"minute"`
	Hour      string `json:"hour"`
	Weekday   string `json:"weekday"`
	Date      string `json:"date"`
}

// Credentials is the ACCESS_KEY credential payload.
type Credentials struct {
	AccessKey       string `json:"accessKey"`
	SecretAccessKey string `json:"secretAccessKey"`
}

// EventSource names the event source feeding event processing.
type EventSource struct {
	CloudTrailName string `json:"cloudTrailName"`
}

// Clone returns a deep copy of c.
func (c Cloud) Clone() Cloud {
	out := c
	out.CloudGroupName = cloneStrings(c.CloudGroupName)
	out.RegionList = cloneStrings(c.RegionList)
	return out
}

// Masked returns a copy of c with credential secrets replaced.
func (c Cloud) Masked() Cloud {
	out := c.Clone()
	if out.Credentials.AccessKey != "" {
		out.Credentials.AccessKey = MaskedSecret
	}
	if out.Credentials.SecretAccessKey != "" {
		out.Credentials.SecretAccessKey = MaskedSecret
	}
	return out
}

// Regions returns the region list without the sentinel.
func (c Cloud) Regions() []string {
	out := make([]string, 0, len(c.RegionList))
	for _, r := range c.RegionList {
		if r != GlobalRegion {
			out = append(out, r)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return slices.Clone(in)
}

// CronSpec converts the active frequency into a standard 5-field cron expression.
func (s ScanSchedule) CronSpec() (string, error) {
	minute := trimZero(s.Minute)
	hour := trimZero(s.Hour)
	switch s.Frequency {
	case FrequencyHour:
		return fmt.Sprintf("%s * * * *", minute), nil
	case FrequencyDay:
		return fmt.Sprintf("%s %s * * *", minute, hour), nil
	case FrequencyWeek:
		return fmt.Sprintf("%s %s * * %s", minute, hour, s.Weekday), nil
	case FrequencyMonth:
		return fmt.Sprintf("%s %s %s * *", minute, hour, s.Date), nil
	default:
		return "", fmt.Errorf("unknown scan frequency %q", s.Frequency)
	}
}

// Validate reports whether the schedule forms a valid cron expression.
func (s ScanSchedule) Validate() error {
	_, err := s.schedule()
	return err
}

// Next returns the next scheduled run strictly after t.
func (s ScanSchedule) Next(t time.Time) (time.Time, error) {
	sched, err := s.schedule()
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(t), nil
}

func (s ScanSchedule) schedule() (cron.Schedule, error) {
	spec, err := s.CronSpec()
	if err != nil {
		return nil, err
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing schedule %q: %w", spec, err)
	}
	return sched, nil
}

// Summary renders the schedule as a sentence for list views.
func (s ScanSchedule) Summary() string {
	switch s.Frequency {
	case FrequencyHour:
		return fmt.Sprintf("Every hour at %sm", s.Minute)
	case FrequencyDay:
		return fmt.Sprintf("Every day at %s:%s", s.Hour, s.Minute)
	case FrequencyWeek:
		return fmt.Sprintf("Every %s at %s:%s", s.Weekday, s.Hour, s.Minute)
	case FrequencyMonth:
		return fmt.Sprintf("Every month (day %s) at %s:%s", s.Date, s.Hour, s.Minute)
	default:
		return "-"
	}
}

// trimZero turns "05" into "5" and "00" into "0" so cron fields stay canonical.
func trimZero(v string) string {
	for len(v) > 1 && v[0] == '0' {
		v = v[1:]
	}
	if v == "" {
		return "0"
	}
	return v
}
