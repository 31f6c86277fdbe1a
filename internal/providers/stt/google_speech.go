package stt

import (
	"context"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
)

// GoogleSpeech is the alternate transcription backend, selected with
// STT_PROVIDER=google. Credentials come from the ambient Google SDK config.
type GoogleSpeech struct {
	c *speech.Client

	SampleRateHz int32
	Language     string
}

func NewGoogleSpeech(ctx context.Context) (*GoogleSpeech, error) {
	c, err := speech.NewClient(ctx)
	if err != nil {
		return nil, err
	}
	return &GoogleSpeech{
		c:            c,
		SampleRateHz: 16000,
		Language:     "en-US",
	}, nil
}

func (g *GoogleSpeech) Close() error { return g.c.Close() }

func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	encoding := speechpb.RecognitionConfig_WEBM_OPUS
	if format == "wav" {
		encoding = speechpb.RecognitionConfig_LINEAR16
	}

	resp, err := g.c.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   encoding,
			SampleRateHertz:            g.SampleRateHz,
			LanguageCode:               g.Language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return "", err
	}

	var bestText string
	var bestConf float64
	for _, r := range resp.Results {
		for _, alt := range r.Alternatives {
			if alt.Transcript != "" && float64(alt.Confidence) >= bestConf {
				bestText = alt.Transcript
				bestConf = float64(alt.Confidence)
			}
		}
	}
	return bestText, nil
}
