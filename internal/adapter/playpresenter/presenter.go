package playpresenter

import (
	"encoding/base64"
	"strings"

	"github.com/park285/playdate-bot/pkg/playdto"
)

// Presenter delivers formatted messages and images without coupling to the command layer.
type Presenter struct {
	sendMessage func(room, message string) error
	sendImage   func(room, imageBase64 string) error
}

func NewPresenter(sendMessage func(room, message string) error, sendImage func(room, imageBase64 string) error) *Presenter {
	return &Presenter{
		sendMessage: sendMessage,
		sendImage:   sendImage,
	}
}

func (p *Presenter) Text(room, message string) error {
	if p == nil || p.sendMessage == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sendMessage(room, message)
}

func (p *Presenter) Image(room string, png []byte) error {
	if p == nil || p.sendImage == nil || len(png) == 0 {
		return nil
	}
	return p.sendImage(room, base64.StdEncoding.EncodeToString(png))
}

// Scene sends message, then the scene image if any.
func (p *Presenter) Scene(room, message string, scene *playdto.Scene) error {
	if err := p.Text(room, message); err != nil {
		return err
	}
	if scene != nil {
		return p.Image(room, scene.Image)
	}
	return nil
}
