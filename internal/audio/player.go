package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Raimguhinov/alarm-go/pkg/logger"
	"github.com/ebitengine/oto/v3"
)

var (
	otoCtx     *oto.Context
	otoCtxOnce sync.Once
	otoReady   bool
)

// Player loops a WAV clip until stopped, standing in for the mobile app's
// background alarm sound.
type Player struct {
	mu      sync.Mutex
	data    []byte
	format  wavFormat
	stop    chan struct{}
	playing bool
	l       *logger.Logger
}

type wavFormat struct {
	sampleRate int
	channels   int
}

// NewPlayer loads the alarm clip from disk. The file must be 16-bit PCM WAV.
func NewPlayer(l *logger.Logger, path string) (*Player, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("audio - NewPlayer - os.ReadFile: %w", err)
	}
	format, data, err := parseWAV(raw)
	if err != nil {
		return nil, fmt.Errorf("audio - NewPlayer - parseWAV: %w", err)
	}
	return &Player{data: data, format: format, l: l}, nil
}

func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.playing {
		return
	}
	p.initContext()
	if !otoReady {
		p.l.Warn("audio - Play: context not ready, staying silent")
		return
	}
	p.playing = true
	p.stop = make(chan struct{})
	go p.loop(p.stop)
}

func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.playing {
		return
	}
	p.playing = false
	close(p.stop)
}

func (p *Player) initContext() {
	otoCtxOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   p.format.sampleRate,
			ChannelCount: p.format.channels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			p.l.Error("audio - initContext - oto.NewContext", logger.Err(err))
			return
		}
		<-ready
		otoCtx = ctx
		otoReady = true
	})
}

func (p *Player) loop(stop chan struct{}) {
	for {
		player := otoCtx.NewPlayer(bytes.NewReader(p.data))
		player.Play()
		for player.IsPlaying() {
			select {
			case <-stop:
				player.Pause()
				_ = player.Close()
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
		if err := player.Close(); err != nil {
			p.l.Warn("audio - loop - player.Close", logger.Err(err))
		}
		select {
		case <-stop:
			return
		default:
		}
	}
}

func parseWAV(raw []byte) (wavFormat, []byte, error) {
	r := bytes.NewReader(raw)

	header := make([]byte, 12)
	if _, err := io.ReadFull(r, header); err != nil {
		return wavFormat{}, nil, err
	}
	if string(header[:4]) != "RIFF" || string(header[8:]) != "WAVE" {
		return wavFormat{}, nil, fmt.Errorf("not a RIFF/WAVE file")
	}

	var format wavFormat
	for {
		chunk := make([]byte, 8)
		if _, err := io.ReadFull(r, chunk); err != nil {
			return wavFormat{}, nil, fmt.Errorf("no data chunk found")
		}
		size := binary.LittleEndian.Uint32(chunk[4:])

		switch string(chunk[:4]) {
		case "fmt ":
			fmtChunk := make([]byte, size)
			if _, err := io.ReadFull(r, fmtChunk); err != nil {
				return wavFormat{}, nil, err
			}
			format.channels = int(binary.LittleEndian.Uint16(fmtChunk[2:]))
			format.sampleRate = int(binary.LittleEndian.Uint32(fmtChunk[4:]))
		case "data":
			data := make([]byte, size)
			if _, err := io.ReadFull(r, data); err != nil {
				return wavFormat{}, nil, err
			}
			return format, data, nil
		default:
			if _, err := r.Seek(int64(size), io.SeekCurrent); err != nil {
				return wavFormat{}, nil, err
			}
		}
	}
}
