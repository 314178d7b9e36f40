package server

import (
	"github.com/JeanRibes/transcribe/project"
	"github.com/JeanRibes/transcribe/shared"
	"github.com/JeanRibes/transcribe/transcribe"
)

type Text map[string]string

type SliderConfig struct {
	MinValue float64 `json:"minValue"`
	MaxValue float64 `json:"maxValue"`
	Step     float64 `json:"step"`
}

type Widget struct {
	Type   string        `json:"type"`
	Config *SliderConfig `json:"config,omitempty"`
}

type Inject struct {
	Type    string            `json:"type"`
	Options map[string]string `json:"options,omitempty"`
}

type Param struct {
	DisplayName  Text    `json:"displayName"`
	Description  Text    `json:"description,omitempty"`
	DefaultValue any     `json:"defaultValue"`
	Widget       Widget  `json:"widget"`
	Hidden       bool    `json:"hidden,omitempty"`
	InjectFrom   *Inject `json:"injectFrom,omitempty"`
}

// Descriptor tells the host what the plugin is called and which parameters
// to show.
type Descriptor struct {
	ProviderID string           `json:"providerId"`
	PluginID   string           `json:"pluginId"`
	Params     map[string]Param `json:"params"`
}

func slider() *SliderConfig {
	return &SliderConfig{MinValue: shared.MinThreshold, MaxValue: shared.MaxThreshold, Step: shared.ThresholdStep}
}

func Describe() Descriptor {
	th := shared.DefaultThresholds()
	return Descriptor{
		ProviderID: shared.ProviderID,
		PluginID:   shared.PluginID,
		Params: map[string]Param{
			"clipAudioData": {
				DisplayName: Text{"en": "Audio", "zh": "音频"},
				Widget:      Widget{Type: "NoWidget"},
				Hidden:      true,
				InjectFrom: &Inject{
					Type:    "ClipAudioData",
					Options: map[string]string{"clips": "selectedAudioClips"},
				},
			},
			"doSeparation": {
				DisplayName:  Text{"en": "Automatic accompaniment separation", "zh": "自动分离伴奏"},
				Description:  Text{"en": "Automatically separate the accompaniment from the audio first, then transcribe the vocals"},
				DefaultValue: false,
				Widget:       Widget{Type: "Switch"},
			},
			"onsetThreshold": {
				DisplayName:  Text{"en": "Onset threshold", "zh": "音符起始阈值"},
				Description:  Text{"en": "The higher the threshold, the lower the number of MIDI notes that will be transcribed"},
				DefaultValue: th.Onset,
				Widget:       Widget{Type: "Slider", Config: slider()},
			},
			"silenceThreshold": {
				DisplayName:  Text{"en": "Silence threshold", "zh": "音符结束阈值"},
				Description:  Text{"en": "The higher the threshold, the longer the MIDI note transcribed"},
				DefaultValue: th.Silence,
				Widget:       Widget{Type: "Slider", Config: slider()},
			},
		},
	}
}

type Entity struct {
	TrackID string `json:"trackId"`
	ClipID  string `json:"clipId,omitempty"`
}

type Trigger struct {
	Type     string   `json:"type,omitempty"`
	Entities []Entity `json:"entities"`
}

// ClipAudioData is the audio the host injects for a selected clip.
type ClipAudioData struct {
	ClipID    string `json:"clipId,omitempty"`
	AudioData struct {
		Format string `json:"format"`
		Data   []byte `json:"data"`
	} `json:"audioData"`
}

// RunParams are the values of the descriptor's parameters.
type RunParams struct {
	shared.Thresholds
	shared.ModelOptions
}

type RunRequest struct {
	Song          *project.Song   `json:"song"`
	Params        RunParams       `json:"params"`
	Trigger       Trigger         `json:"trigger"`
	ClipAudioData []ClipAudioData `json:"clipAudioData,omitempty"`
}

type RunResponse struct {
	Song   *project.Song      `json:"song"`
	Report *transcribe.Report `json:"report"`
}
