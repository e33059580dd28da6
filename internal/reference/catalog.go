// Package reference loads the activity catalog and the reference data each
// activity is scored against.
package reference

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/banshee-data/posture.report/internal/feedback"
	"github.com/banshee-data/posture.report/internal/landmark"
	"github.com/banshee-data/posture.report/internal/reps"
)

// DefaultCatalogPath is the activity catalog shipped with the repository.
const DefaultCatalogPath = "config/activities.json"

var (
	// ErrUnknownActivity is returned for names missing from the catalog.
	ErrUnknownActivity = errors.New("unknown activity")
	// ErrMissingReference is returned when a reference file cannot be read
	// or lacks the data its activity needs.
	ErrMissingReference = errors.New("missing reference data")
)

// Kind selects the session flow an activity runs with.
type Kind string

const (
	KindPose       Kind = "pose"
	KindMotion     Kind = "motion"
	KindWorkout    Kind = "workout"
	KindMeditation Kind = "meditation"
)

// Activity is one catalog entry. File names are relative to the catalog's
// reference directory.
type Activity struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	Pose           string `json:"pose,omitempty"`
	Motion         string `json:"motion,omitempty"`
	MeanPose       string `json:"mean_pose,omitempty"`
	AngleReference string `json:"angle_reference,omitempty"`

	Tracked     *landmark.Triple      `json:"tracked,omitempty"`
	Thresholds  *reps.Thresholds      `json:"thresholds,omitempty"`
	Rules       string                `json:"rules,omitempty"`
	AngleChecks []feedback.AngleCheck `json:"angle_checks,omitempty"`
	Prone       bool                  `json:"prone,omitempty"`
}

// Validate checks that the entry names what its kind needs.
func (a Activity) Validate() error {
	if a.Name == "" {
		return errors.New("activity without a name")
	}
	need := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("activity %q (%s) requires %s", a.Name, a.Kind, field)
		}
		return nil
	}

	var err error
	switch a.Kind {
	case KindPose:
		err = need("pose", a.Pose)
	case KindMotion:
		err = need("motion", a.Motion)
	case KindWorkout:
		err = need("mean_pose", a.MeanPose)
		if err == nil && (a.Tracked == nil || a.Thresholds == nil) {
			err = fmt.Errorf("activity %q (workout) requires tracked and thresholds", a.Name)
		}
	case KindMeditation:
		err = need("mean_pose", a.MeanPose)
	default:
		err = fmt.Errorf("activity %q has unknown kind %q", a.Name, a.Kind)
	}
	if err != nil {
		return err
	}

	if a.Thresholds != nil {
		if err := a.Thresholds.Validate(); err != nil {
			return fmt.Errorf("activity %q: %w", a.Name, err)
		}
	}
	if a.Rules != "" {
		if _, ok := feedback.PoseRules(a.Rules, 0); !ok {
			return fmt.Errorf("activity %q names unknown rule set %q", a.Name, a.Rules)
		}
	}
	return nil
}

type catalogFile struct {
	ReferenceDir string     `json:"reference_dir"`
	Activities   []Activity `json:"activities"`
}

// Catalog holds the activities and caches their loaded bundles. Bundles are
// immutable and may be shared between concurrent sessions.
type Catalog struct {
	dir        string
	activities map[string]Activity

	mu      sync.Mutex
	bundles map[string]*Bundle
}

// LoadCatalog reads a catalog file. A relative reference_dir is resolved
// against the catalog file's directory.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var cf catalogFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	dir := cf.ReferenceDir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(filepath.Dir(path), dir)
	}
	return NewCatalog(dir, cf.Activities)
}

// NewCatalog builds a catalog from in-memory entries.
func NewCatalog(dir string, activities []Activity) (*Catalog, error) {
	c := &Catalog{
		dir:        dir,
		activities: make(map[string]Activity, len(activities)),
		bundles:    make(map[string]*Bundle),
	}
	for _, a := range activities {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.activities[a.Name]; dup {
			return nil, fmt.Errorf("duplicate activity %q", a.Name)
		}
		c.activities[a.Name] = a
	}
	return c, nil
}

// Lookup returns the named activity.
func (c *Catalog) Lookup(name string) (Activity, error) {
	a, ok := c.activities[name]
	if !ok {
		return Activity{}, fmt.Errorf("%w: %q", ErrUnknownActivity, name)
	}
	return a, nil
}

// Names returns the activity names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.activities))
	for name := range c.activities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load returns the reference bundle for name, reading it on first use.
func (c *Catalog) Load(name string) (*Bundle, error) {
	a, err := c.Lookup(name)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.bundles[name]; ok {
		return b, nil
	}
	b, err := loadBundle(c.dir, a)
	if err != nil {
		return nil, err
	}
	c.bundles[name] = b
	return b, nil
}
