package transcribe

import (
	"fmt"

	"github.com/JeanRibes/transcribe/music"
	"github.com/JeanRibes/transcribe/project"
	"github.com/JeanRibes/transcribe/shared"
)

// Materialize creates a note clip at index on track, fills it and forces its
// bounds onto the audio region. On error nothing is left on the track.
func Materialize(track *project.Track, index int, region music.Region, notes []music.TickNote) (*project.Clip, error) {
	clip := project.NewNoteClip(region.ClipStart, region.ClipEnd)
	track.InsertClip(index, clip)

	if err := fill(track, clip, region, notes); err != nil {
		track.RemoveClip(clip.ID)
		return nil, err
	}
	return clip, nil
}

func fill(track *project.Track, clip *project.Clip, region music.Region, notes []music.TickNote) error {
	for _, n := range notes {
		if err := clip.CreateNote(n.Pitch, n.Velocity, n.Start, n.End); err != nil {
			return err
		}
	}
	// neighbours are not touched, placement is the caller's job
	if err := track.AdjustClipLeft(clip.ID, region.ClipStart, false); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrBoundaryForce, err)
	}
	if err := track.AdjustClipRight(clip.ID, region.ClipEnd, false); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrBoundaryForce, err)
	}
	return nil
}
