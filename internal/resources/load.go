package resources

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// ErrMalformed is returned by Load for documents that are not animation
// resource files.
var ErrMalformed = errors.New("malformed resource file")

// AnimFlags are the animation behaviour bits of an ANIMATION_DESC.
type AnimFlags uint32

const (
	RandomAnim AnimFlags = 1 << iota
	CircularAnim
	YoyoAnim
	WaitTalking
	PauseTalking
	TalkIntro
	TalkDone
	AnimDisabled
)

var flagNames = []string{
	"RANDOM_ANIM",
	"CIRCULAR_ANIM",
	"YOYO_ANIM",
	"WAIT_TALKING",
	"PAUSE_TALKING",
	"TALK_INTRO",
	"TALK_DONE",
	"ANIM_DISABLED",
}

// String returns the set flags as NAME|NAME, or 0.
func (f AnimFlags) String() string {
	if f == 0 {
		return "0"
	}
	var parts []string
	for i, name := range flagNames {
		if f&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if rest := f &^ (1<<len(flagNames) - 1); rest != 0 {
		parts = append(parts, fmt.Sprintf("%#x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// AnimationDesc is one decoded integer-array.
type AnimationDesc struct {
	StartIndex        int64
	NumFrames         int64
	AnimFlags         AnimFlags
	BaseFrameRate     int64
	RandomFrameRate   int64
	BaseRestartRate   int64
	RandomRestartRate int64
	BlockMask         int64
}

// animationFields is the number of integers in an encoded AnimationDesc.
const animationFields = 8

// DecodeAnimation decodes the integers of an animation array.
func DecodeAnimation(vals []int64) (AnimationDesc, error) {
	if len(vals) != animationFields {
		return AnimationDesc{}, fmt.Errorf("%w: animation has %d values, want %d", ErrMalformed, len(vals), animationFields)
	}
	return AnimationDesc{
		StartIndex:        vals[0],
		NumFrames:         vals[1],
		AnimFlags:         AnimFlags(vals[2]),
		BaseFrameRate:     vals[3],
		RandomFrameRate:   vals[4],
		BaseRestartRate:   vals[5],
		RandomRestartRate: vals[6],
		BlockMask:         vals[7],
	}, nil
}

// String formats a like the wallpaper's debug output.
func (a AnimationDesc) String() string {
	return fmt.Sprintf("Start[%05d] Frames[%02d] Flags[%02d] FrameRate[%05d] FrameRate2[%05d] Restart[%05d] Restart2[%05d] Block[%010d]",
		a.StartIndex, a.NumFrames, uint32(a.AnimFlags), a.BaseFrameRate, a.RandomFrameRate,
		a.BaseRestartRate, a.RandomRestartRate, a.BlockMask)
}

// Animation is a named integer-array of a loaded file.
type Animation struct {
	Name   string
	Values []int64
}

// Resources is a loaded resource file.
type Resources struct {
	Race       string
	Content    []string
	Lookup     []string
	Animations []Animation // in lookup order
}

// Load reads a resource file written by Write.
func Load(r io.Reader) (*Resources, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "resources" {
		return nil, fmt.Errorf("%w: root element is not <resources>", ErrMalformed)
	}

	var arrays []string
	strs := map[string][]string{}
	ints := map[string][]int64{}
	for _, el := range root.ChildElements() {
		name := el.SelectAttrValue("name", "")
		if name == "" {
			return nil, fmt.Errorf("%w: <%s> without a name", ErrMalformed, el.Tag)
		}
		switch el.Tag {
		case "string-array":
			var items []string
			for _, it := range el.SelectElements("item") {
				items = append(items, strings.TrimSpace(it.Text()))
			}
			strs[name] = items
			arrays = append(arrays, name)
		case "integer-array":
			var vals []int64
			for _, it := range el.SelectElements("item") {
				v, err := strconv.ParseInt(strings.TrimSpace(it.Text()), 10, 64)
				if err != nil {
					return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, name, err)
				}
				vals = append(vals, v)
			}
			ints[name] = vals
		}
	}

	res := &Resources{}
	for _, name := range arrays {
		race, ok := strings.CutSuffix(name, "_content")
		if !ok {
			continue
		}
		if lookup, ok := strs[LookupName(race)]; ok && len(lookup) > 0 && lookup[0] == name {
			res.Race, res.Content, res.Lookup = race, strs[name], lookup
			break
		}
	}
	if res.Race == "" {
		return nil, fmt.Errorf("%w: no lookup array", ErrMalformed)
	}
	for _, name := range res.Lookup[1:] {
		vals, ok := ints[name]
		if !ok {
			return nil, fmt.Errorf("%w: lookup names missing array %s", ErrMalformed, name)
		}
		res.Animations = append(res.Animations, Animation{Name: name, Values: vals})
	}
	return res, nil
}

// LoadFile reads the resource file at path.
func LoadFile(path string) (*Resources, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	res, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
