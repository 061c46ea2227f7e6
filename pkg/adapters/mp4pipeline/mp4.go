package mp4pipeline

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Eyevinn/mp4ff/mp4"
)

// buildMP4 muxes an Annex-B H.264 elementary stream into a fragmented
// MP4. pts holds one presentation timestamp per frame as supplied by the
// pull callback; sample durations are derived from their spacing.
func buildMP4(stream []byte, pts []time.Duration, width, height int, fps float64) ([]byte, error) {
	units := splitAccessUnits(parseAnnexB(stream))
	if len(units) == 0 {
		return nil, ErrNoFrames
	}
	// The encoder neither drops nor inserts frames, so unit and pts
	// counts should match; tolerate a tail mismatch from a truncated
	// stream by muxing the shorter of the two.
	n := len(units)
	if len(pts) < n {
		n = len(pts)
	}

	timescale := uint32(fps * 1000)
	trackID := uint32(1)

	init := mp4.CreateEmptyInit()
	init.AddEmptyTrack(timescale, "video", "en")
	trak := init.Moov.Trak

	sps, pps, err := extractSPSPPS(units)
	if err != nil {
		return nil, fmt.Errorf("extract SPS/PPS: %w", err)
	}
	avcC, err := mp4.CreateAvcC([][]byte{sps}, [][]byte{pps}, true)
	if err != nil {
		return nil, fmt.Errorf("create avcC: %w", err)
	}

	avc1 := mp4.CreateVisualSampleEntryBox("avc1", uint16(width), uint16(height), avcC)
	trak.Mdia.Minf.Stbl.Stsd.AddChild(avc1)
	trak.Tkhd.Width = mp4.Fixed32(width << 16)
	trak.Tkhd.Height = mp4.Fixed32(height << 16)

	frag, err := mp4.CreateFragment(1, trackID)
	if err != nil {
		return nil, fmt.Errorf("create fragment: %w", err)
	}

	defaultDur := uint32(float64(timescale) / fps)
	for i := 0; i < n; i++ {
		var dur uint32
		if i < n-1 {
			dur = ticks(pts[i+1]-pts[i], timescale)
		}
		if dur == 0 {
			dur = defaultDur
		}

		flags := mp4.NonSyncSampleFlags
		if units[i].isKeyframe {
			flags = mp4.SyncSampleFlags
		}

		data := units[i].toAVCC()
		frag.AddFullSample(mp4.FullSample{
			Sample: mp4.Sample{
				Flags: flags,
				Size:  uint32(len(data)),
				Dur:   dur,
			},
			DecodeTime: uint64(ticks(pts[i], timescale)),
			Data:       data,
		})
	}

	var buf bytes.Buffer
	ftyp := mp4.NewFtyp("isom", 0x200, []string{"isom", "iso2", "avc1", "mp41"})
	if err := ftyp.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode ftyp: %w", err)
	}
	if err := init.Moov.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode moov: %w", err)
	}
	if err := frag.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode fragment: %w", err)
	}
	return buf.Bytes(), nil
}

// ticks converts a duration to timescale units.
func ticks(d time.Duration, timescale uint32) uint32 {
	return uint32(d.Seconds() * float64(timescale))
}

// extractSPSPPS finds the SPS and PPS NAL units, searching keyframes
// first since the encoder emits parameter sets there.
func extractSPSPPS(units []accessUnit) (sps, pps []byte, err error) {
	for _, u := range units {
		for _, nalu := range u.nalus {
			switch nalType(nalu) {
			case nalTypeSPS:
				if sps == nil {
					sps = append([]byte(nil), nalu...)
				}
			case nalTypePPS:
				if pps == nil {
					pps = append([]byte(nil), nalu...)
				}
			}
		}
		if sps != nil && pps != nil {
			return sps, pps, nil
		}
	}
	if sps == nil {
		return nil, nil, fmt.Errorf("SPS not found")
	}
	return nil, nil, fmt.Errorf("PPS not found")
}
