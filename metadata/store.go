package metadata

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"slices"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"
)

// Source supplies numbering plans to the engine. Lookups for unknown keys
// return nil.
type Source interface {
	ForRegion(region string) *PlanMetadata
	ForNonGeographicalRegion(callingCode int) *PlanMetadata
	// RegionsForCallingCode lists the regions sharing a calling code, main
	// region first. Non-geographic codes list NonGeoRegion.
	RegionsForCallingCode(callingCode int) []string
	SupportedRegions() []string
	SupportedCallingCodes() []int
}

//go:embed data
var bundled embed.FS

// Bundled returns the plan files shipped with the module.
func Bundled() fs.FS {
	sub, err := fs.Sub(bundled, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

const indexFile = "index.yaml"

// Store is a Source backed by YAML files: an index.yaml mapping calling
// codes to regions, regions/<ID>.yaml and nongeo/<code>.yaml. Each plan is
// decoded on first use, exactly once, and then shared read-only.
type Store struct {
	fsys   fs.FS
	logger *slog.Logger

	regionsByCode map[int][]string
	codeByRegion  map[string]int

	mu    sync.RWMutex
	plans map[string]*PlanMetadata
	group singleflight.Group
}

var _ Source = (*Store)(nil)

// NewStore reads the index from fsys. Plan files are loaded lazily.
func NewStore(fsys fs.FS, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data, err := fs.ReadFile(fsys, indexFile)
	if err != nil {
		return nil, fmt.Errorf("reading metadata index: %w", err)
	}
	var index map[int][]string
	if err := yaml.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("decoding metadata index: %w", err)
	}

	s := &Store{
		fsys:          fsys,
		logger:        logger,
		regionsByCode: index,
		codeByRegion:  make(map[string]int),
		plans:         make(map[string]*PlanMetadata),
	}
	for code, regions := range index {
		if len(regions) == 0 {
			return nil, fmt.Errorf("metadata index: calling code %d has no regions", code)
		}
		for _, r := range regions {
			if r == NonGeoRegion {
				continue
			}
			if prev, dup := s.codeByRegion[r]; dup {
				return nil, fmt.Errorf("metadata index: region %s listed under %d and %d", r, prev, code)
			}
			s.codeByRegion[r] = code
		}
	}
	return s, nil
}

// OpenDir is NewStore over a directory on disk.
func OpenDir(dir string, logger *slog.Logger) (*Store, error) {
	return NewStore(os.DirFS(dir), logger)
}

// NewBundledStore is NewStore over the bundled plan files.
func NewBundledStore(logger *slog.Logger) (*Store, error) {
	return NewStore(Bundled(), logger)
}

func (s *Store) ForRegion(region string) *PlanMetadata {
	if _, ok := s.codeByRegion[region]; !ok {
		return nil
	}
	return s.load(region, path.Join("regions", region+".yaml"))
}

func (s *Store) ForNonGeographicalRegion(callingCode int) *PlanMetadata {
	if !slices.Contains(s.regionsByCode[callingCode], NonGeoRegion) {
		return nil
	}
	name := strconv.Itoa(callingCode)
	return s.load(NonGeoRegion+"/"+name, path.Join("nongeo", name+".yaml"))
}

func (s *Store) RegionsForCallingCode(callingCode int) []string {
	return s.regionsByCode[callingCode]
}

func (s *Store) SupportedRegions() []string {
	out := make([]string, 0, len(s.codeByRegion))
	for r := range s.codeByRegion {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

func (s *Store) SupportedCallingCodes() []int {
	out := make([]int, 0, len(s.regionsByCode))
	for c := range s.regionsByCode {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Preload decodes every plan in the index and reports the first failure.
// Use it at startup to surface broken data before serving traffic.
func (s *Store) Preload(ctx context.Context) error {
	for _, code := range s.SupportedCallingCodes() {
		for _, r := range s.regionsByCode[code] {
			if err := ctx.Err(); err != nil {
				return err
			}
			key, file := r, path.Join("regions", r+".yaml")
			if r == NonGeoRegion {
				name := strconv.Itoa(code)
				key, file = NonGeoRegion+"/"+name, path.Join("nongeo", name+".yaml")
			}
			if _, err := s.loadErr(key, file); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) load(key, file string) *PlanMetadata {
	m, err := s.loadErr(key, file)
	if err != nil {
		s.logger.Error("loading numbering plan", "plan", key, "error", err)
		return nil
	}
	return m
}

func (s *Store) loadErr(key, file string) (*PlanMetadata, error) {
	s.mu.RLock()
	m, ok := s.plans[key]
	s.mu.RUnlock()
	if ok {
		return m, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		s.mu.RLock()
		m, ok := s.plans[key]
		s.mu.RUnlock()
		if ok {
			return m, nil
		}

		data, err := fs.ReadFile(s.fsys, file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file, err)
		}
		m, err = Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		if err := s.checkIndexed(key, m); err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}

		s.mu.Lock()
		s.plans[key] = m
		s.mu.Unlock()
		s.logger.Debug("numbering plan loaded", "plan", key, "formats", len(m.NumberFormats))
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*PlanMetadata), nil
}

func (s *Store) checkIndexed(key string, m *PlanMetadata) error {
	if m.ID == NonGeoRegion {
		if key != NonGeoRegion+"/"+strconv.Itoa(m.CountryCode) {
			return fmt.Errorf("non-geographic plan for %d stored as %s", m.CountryCode, key)
		}
		return nil
	}
	if m.ID != key {
		return fmt.Errorf("plan id %s does not match file for %s", m.ID, key)
	}
	if code := s.codeByRegion[key]; code != m.CountryCode {
		return fmt.Errorf("plan %s declares calling code %d, index says %d", key, m.CountryCode, code)
	}
	return nil
}

// Loaded reports how many plans have been decoded so far.
func (s *Store) Loaded() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plans)
}
