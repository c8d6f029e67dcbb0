package handlers

import (
	"log"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

// HandleJoinCode serves the join link as a QR code PNG
func (ctx *Context) HandleJoinCode(w http.ResponseWriter, r *http.Request) {
	if ctx.JoinURL == "" {
		http.NotFound(w, r)
		return
	}
	png, err := qrcode.Encode(ctx.JoinURL, qrcode.Medium, qrSize)
	if err != nil {
		log.Printf("[handlers] encode join code: %v", err)
		http.Error(w, "could not encode join code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}
