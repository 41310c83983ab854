package llvminstaller

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/yugabyte/llvm-installer/internal/sysdetect"
)

//go:embed release_tags.json
var embeddedReleaseTags []byte

//go:embed schemas/release-tags.schema.json
var releaseTagsSchema []byte

// PackageCollection is an immutable, ordered set of parsed release tags.
// Filtering returns new collections and never mutates the receiver.
type PackageCollection struct {
	ParsedTags []*ParsedTag
}

// releaseTagsFile is the on-disk shape of the release catalog.
type releaseTagsFile struct {
	ParsedTags []*ParsedTag `json:"parsed_tags"`
}

var (
	defaultCollectionOnce sync.Once
	defaultCollection     *PackageCollection
	defaultCollectionErr  error
)

// Default returns the collection backed by the embedded release catalog.
// The catalog is parsed and validated once per process; concurrent callers
// share the result.
func Default() (*PackageCollection, error) {
	defaultCollectionOnce.Do(func() {
		defaultCollection, defaultCollectionErr = loadEmbeddedCatalog()
	})
	return defaultCollection, defaultCollectionErr
}

func loadEmbeddedCatalog() (*PackageCollection, error) {
	if len(embeddedReleaseTags) == 0 {
		return nil, errors.New("embedded release catalog is empty")
	}
	collection, err := UnmarshalDataset(embeddedReleaseTags)
	if err != nil {
		return nil, fmt.Errorf("embedded release catalog: %w", err)
	}
	return collection, nil
}

// NewCollection builds a collection from already parsed tags.
func NewCollection(parsedTags []*ParsedTag) *PackageCollection {
	return &PackageCollection{ParsedTags: parsedTags}
}

// NewCollectionFromTags parses raw tags into a collection, failing on the
// first malformed tag.
func NewCollectionFromTags(tags []string) (*PackageCollection, error) {
	parsedTags := make([]*ParsedTag, 0, len(tags))
	for _, tag := range tags {
		pt, err := ParseTag(tag)
		if err != nil {
			return nil, err
		}
		parsedTags = append(parsedTags, pt)
	}
	return &PackageCollection{ParsedTags: parsedTags}, nil
}

// UnmarshalDataset parses a release catalog in the release_tags.json format.
// Every entry is checked against the tag grammar, and the stored derived
// fields must agree with what parsing the tag produces.
func UnmarshalDataset(data []byte) (*PackageCollection, error) {
	var file releaseTagsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse release catalog: %w", err)
	}

	var problems []string
	for i, pt := range file.ParsedTags {
		if pt == nil {
			problems = append(problems, fmt.Sprintf("entry %d: null", i))
			continue
		}
		reparsed, err := ParseTag(pt.Tag)
		if err != nil {
			problems = append(problems, fmt.Sprintf("entry %d: %v", i, err))
			continue
		}
		if !reflect.DeepEqual(reparsed, pt) {
			problems = append(problems, fmt.Sprintf(
				"entry %d (%s): stored fields disagree with the parsed tag", i, pt.Tag))
		}
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid release catalog:\n- %s", strings.Join(problems, "\n- "))
	}
	return &PackageCollection{ParsedTags: file.ParsedTags}, nil
}

// MarshalDataset renders the collection in the release_tags.json format.
func (c *PackageCollection) MarshalDataset() ([]byte, error) {
	data, err := json.MarshalIndent(releaseTagsFile{ParsedTags: c.ParsedTags}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal release catalog: %w", err)
	}
	return append(data, '\n'), nil
}

// ValidateDataset checks catalog JSON against the release tag schema.
func ValidateDataset(data []byte) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(releaseTagsSchema))
	if err != nil {
		return fmt.Errorf("parse release catalog schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("release-tags.schema.json", schemaDoc); err != nil {
		return fmt.Errorf("load release catalog schema: %w", err)
	}
	schema, err := compiler.Compile("release-tags.schema.json")
	if err != nil {
		return fmt.Errorf("compile release catalog schema: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse release catalog: %w", err)
	}
	if err := schema.Validate(instance); err != nil {
		return fmt.Errorf("release catalog does not match schema: %w", err)
	}
	return nil
}

// Filter keeps the releases of the requested major version whose OS is
// compatible with shortOSNameAndVersion and whose architecture matches
// exactly. Order is preserved.
func (c *PackageCollection) Filter(majorVersion int, shortOSNameAndVersion, architecture string) *PackageCollection {
	filtered := make([]*ParsedTag, 0, len(c.ParsedTags))
	for _, pt := range c.ParsedTags {
		if pt.MajorVersion == majorVersion &&
			sysdetect.IsCompatibleOS(pt.ShortOSNameAndVersion, shortOSNameAndVersion) &&
			pt.Architecture == architecture {
			filtered = append(filtered, pt)
		}
	}
	return &PackageCollection{ParsedTags: filtered}
}

// SelectLatest picks the release with the highest version key. An empty
// collection yields a NoMatchingTagError; several releases sharing the
// highest key yield an AmbiguousTagError, never an arbitrary winner.
func (c *PackageCollection) SelectLatest(criteria Criteria) (*ParsedTag, error) {
	parsedTags := c.ParsedTags
	if len(parsedTags) == 0 {
		return nil, &NoMatchingTagError{Criteria: criteria}
	}
	if len(parsedTags) == 1 {
		return parsedTags[0], nil
	}

	maxKey := parsedTags[0].VersionKey()
	for _, pt := range parsedTags[1:] {
		if key := pt.VersionKey(); maxKey.Compare(key) < 0 {
			maxKey = key
		}
	}

	var highest []*ParsedTag
	for _, pt := range parsedTags {
		if pt.VersionKey() == maxKey {
			highest = append(highest, pt)
		}
	}
	if len(highest) == 1 {
		return highest[0], nil
	}
	return nil, &AmbiguousTagError{Criteria: criteria, VersionKey: maxKey, Candidates: parsedTags}
}

// OnePerLine renders every release on its own indented line, in collection
// order, for warning logs and diagnostics.
func (c *PackageCollection) OnePerLine(indent int) string {
	pad := strings.Repeat(" ", indent)
	lines := make([]string, len(c.ParsedTags))
	for i, pt := range c.ParsedTags {
		lines[i] = pad + pt.String()
	}
	return strings.Join(lines, "\n")
}

// Sorted returns a copy ordered the way the shipped catalog is ordered:
// major version, OS, architecture, timestamp, commit prefix, tag.
func (c *PackageCollection) Sorted() *PackageCollection {
	parsedTags := make([]*ParsedTag, len(c.ParsedTags))
	copy(parsedTags, c.ParsedTags)
	sort.SliceStable(parsedTags, func(i, j int) bool {
		a, b := parsedTags[i], parsedTags[j]
		if a.MajorVersion != b.MajorVersion {
			return a.MajorVersion < b.MajorVersion
		}
		if a.ShortOSNameAndVersion != b.ShortOSNameAndVersion {
			return a.ShortOSNameAndVersion < b.ShortOSNameAndVersion
		}
		if a.Architecture != b.Architecture {
			return a.Architecture < b.Architecture
		}
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		if a.SHA1Prefix != b.SHA1Prefix {
			return a.SHA1Prefix < b.SHA1Prefix
		}
		return a.Tag < b.Tag
	})
	return &PackageCollection{ParsedTags: parsedTags}
}
