package scene

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/pbrview/pkg/math"
)

func TestMailboxEmpty(t *testing.T) {
	var m Mailbox
	assert.Nil(t, m.Take())
}

func TestMailboxLatestWins(t *testing.T) {
	var m Mailbox
	first := &Settings{Camera: CameraSettings{FOV: 30}}
	second := &Settings{Camera: CameraSettings{FOV: 60}}

	m.Submit(first)
	m.Submit(second)

	got := m.Take()
	require.NotNil(t, got)
	assert.Same(t, second, got)
	assert.Nil(t, m.Take(), "snapshot is consumed once")
}

func TestMailboxConcurrentWriters(t *testing.T) {
	var m Mailbox
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Submit(&Settings{Camera: CameraSettings{FOV: float32(i)}})
			}
		}(i)
	}

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				_ = m.Take()
			}
		}
	}()

	wg.Wait()
	close(done)

	final := &Settings{Camera: CameraSettings{FOV: 99}}
	m.Submit(final)
	assert.Same(t, final, m.Take())
}

func TestObjectSettingsApply(t *testing.T) {
	o := NewObject()
	o.Rotation = math.Vec3{10, 20, 30}

	ObjectSettings{
		Position:   math.Vec3{1, 0, 0},
		Scale:      math.Vec3{2, 2, 2},
		Autorotate: false,
		Speed:      1,
	}.Apply(o)

	assert.Equal(t, math.Vec3{1, 0, 0}, o.Position)
	assert.Equal(t, math.Vec3{2, 2, 2}, o.Scale)
	assert.False(t, o.Autorotate)
	assert.Equal(t, float32(1), o.Speed)
	assert.Equal(t, math.Vec3{10, 20, 30}, o.Rotation, "rotation kept without override")

	rot := math.Vec3{0, 90, 0}
	ObjectSettings{Scale: math.One3, Rotation: &rot}.Apply(o)
	assert.Equal(t, rot, o.Rotation)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    RGBA
		wantErr bool
	}{
		{in: "#ffffff", want: RGBA{1, 1, 1, 1}},
		{in: "#000000", want: RGBA{0, 0, 0, 1}},
		{in: "#ff000080", want: RGBA{1, 0, 0, 128.0 / 255}},
		{in: "#f00", want: RGBA{1, 0, 0, 1}},
		{in: " #0000ff ", want: RGBA{0, 0, 1, 1}},
		{in: "blue", wantErr: true},
		{in: "#ff0000zz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-3)
			}
		})
	}
}

func TestRGBAHex(t *testing.T) {
	assert.Equal(t, "#ff000080", RGBA{1, 0, 0, 128.0 / 255}.Hex())

	back, err := ParseColor(RGBA{0.2, 0.4, 0.6, 1}.Hex())
	require.NoError(t, err)
	assert.InDelta(t, 0.2, back[0], 0.01)
	assert.InDelta(t, 0.4, back[1], 0.01)
	assert.InDelta(t, 0.6, back[2], 0.01)
}

func TestDefaultEnvironment(t *testing.T) {
	env := DefaultEnvironment()
	assert.Equal(t, float32(0.1), env.AmbientStrength)
	assert.Equal(t, math.Vec3{1, 1, 1}, env.AmbientColor)
	assert.Equal(t, math.Vec3{0.2, 0.2, 0.8}, env.LightColor)
	assert.Equal(t, env.BackgroundColor, env.ClearColor())
}
