package theory

import (
	"strings"
)

// KeyPreference maps a key signature (negative = flats) to a convention
func KeyPreference(sharps int) Convention {
	if sharps < 0 {
		return Flat
	}
	return Sharp
}

// ParseKeyName splits names like "Bb major", "F#m" or "c minor"
func ParseKeyName(name string) (root string, minor bool, ok bool) {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return "", false, false
	}
	head := fields[0]
	rest := strings.ToLower(strings.Join(fields[1:], " "))

	end := 1
	for end < len(head) && (head[end] == '#' || head[end] == 'b') {
		end++
	}
	root = NormalizeName(head[:end])
	if !IsValidNote(root) {
		return "", false, false
	}
	suffix := head[end:]
	minor = suffix == "m" || suffix == "min" || suffix == "-" ||
		strings.HasPrefix(rest, "min") || rest == "m" || rest == "aeolian"
	return root, minor, true
}

// PreferenceFromKeyName derives sharps or flats from a key's name
func PreferenceFromKeyName(name string) Convention {
	root, minor, ok := ParseKeyName(name)
	if !ok {
		return Sharp
	}
	if minor {
		return DefaultConvention(root, ScaleMinor)
	}
	return DefaultConvention(root, ScaleMajor)
}

// KeyName renders a key signature as a key name, e.g. -3 major is "Eb"
func KeyName(sharps int, minor bool) string {
	conv := KeyPreference(sharps)
	// each sharp moves the tonic up a fifth
	pc := Transpose(0, 7*sharps)
	if minor {
		pc = Transpose(pc, -3)
	}
	name := PitchClassToName(pc, conv)
	if sharps == -7 && !minor {
		name = "Cb"
	}
	if minor {
		return name + "m"
	}
	return name
}
