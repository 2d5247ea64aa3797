// Package audio is the ringing-sound collaborator. The scheduler only ever
// starts it on delivery and stops it on dismissal; everything else about
// playback is this package's business.
package audio

// Ringer plays the looping alarm sound.
type Ringer interface {
	Play()
	Stop()
}

// Noop is the ringer for headless runs and tests.
type Noop struct{}

func (Noop) Play() {}
func (Noop) Stop() {}
