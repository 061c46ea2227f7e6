package mp4pipeline

// H.264 NAL unit types this package cares about.
const (
	nalTypeIDR = 5
	nalTypeSPS = 7
	nalTypePPS = 8
	nalTypeAUD = 9
)

// nalType returns the NAL unit type of a raw NAL unit.
func nalType(nalu []byte) int {
	if len(nalu) == 0 {
		return -1
	}
	return int(nalu[0] & 0x1F)
}

// parseAnnexB splits an Annex-B byte stream into individual NAL units,
// handling both 3- and 4-byte start codes.
func parseAnnexB(data []byte) [][]byte {
	var nalus [][]byte
	start := 0
	i := 0

	for i < len(data) {
		if i+2 < len(data) && data[i] == 0 && data[i+1] == 0 {
			startCodeLen := 0
			if data[i+2] == 1 {
				startCodeLen = 3
			} else if i+3 < len(data) && data[i+2] == 0 && data[i+3] == 1 {
				startCodeLen = 4
			}
			if startCodeLen > 0 {
				if i > start {
					nalus = append(nalus, data[start:i])
				}
				i += startCodeLen
				start = i
				continue
			}
		}
		i++
	}

	if start < len(data) {
		nalus = append(nalus, data[start:])
	}
	return nalus
}

// accessUnit is one encoded frame: its NAL units (without the AUD) and
// whether it contains an IDR slice.
type accessUnit struct {
	nalus      [][]byte
	isKeyframe bool
}

// isVCL reports whether the NAL unit type carries coded slice data.
func isVCL(t int) bool {
	return t >= 1 && t <= nalTypeIDR
}

// splitAccessUnits groups a NAL unit sequence into frames. The encoder
// is asked to insert access-unit delimiters; a delimiter closes the
// current frame only once it holds a coded slice, so leading SPS/PPS
// (which the muxer hoists into the avcC box anyway) join the first
// frame instead of forming an empty one. Units are emitted one per
// slice-bearing frame, keeping sample count aligned with pts count.
func splitAccessUnits(nalus [][]byte) []accessUnit {
	var units []accessUnit
	cur := accessUnit{}
	hasSlice := false

	for _, nalu := range nalus {
		t := nalType(nalu)
		if t == nalTypeAUD {
			if hasSlice {
				units = append(units, cur)
				cur = accessUnit{}
				hasSlice = false
			}
			continue
		}
		if t == nalTypeIDR {
			cur.isKeyframe = true
		}
		if isVCL(t) {
			hasSlice = true
		}
		cur.nalus = append(cur.nalus, nalu)
	}
	if hasSlice {
		units = append(units, cur)
	}
	return units
}

// toAVCC converts an access unit to AVCC format (4-byte length prefixes).
// SPS and PPS are skipped in sample data; they live in the avcC box.
func (u accessUnit) toAVCC() []byte {
	totalSize := 0
	for _, nalu := range u.nalus {
		switch nalType(nalu) {
		case nalTypeSPS, nalTypePPS:
			continue
		}
		totalSize += 4 + len(nalu)
	}

	result := make([]byte, 0, totalSize)
	for _, nalu := range u.nalus {
		switch nalType(nalu) {
		case nalTypeSPS, nalTypePPS:
			continue
		}
		length := len(nalu)
		result = append(result,
			byte(length>>24), byte(length>>16), byte(length>>8), byte(length))
		result = append(result, nalu...)
	}
	return result
}
