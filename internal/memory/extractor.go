package memory

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	"github.com/denizyalin/museguide/internal/gateway"
)

// Completer is the slice of the LLM gateway the extractor needs.
type Completer interface {
	Call(ctx context.Context, req gateway.Request) (string, error)
}

const extractionSystem = `Sen bir bilgi çıkarma asistanısın. Ziyaretçi ile rehber arasındaki konuşmadan ziyaretçi hakkındaki kişisel bilgileri çıkar.
Sadece şu JSON formatında cevap ver, başka hiçbir şey yazma:
{"name": "ziyaretçinin adı veya boş", "interests": ["ilgi alanları"], "preferences": {"anahtar": "değer"}, "is_important": true/false}
is_important yalnızca konuşma ziyaretçi hakkında kalıcı bir bilgi içeriyorsa true olmalı.`

// Extractor distills visitor facts from chat turns and merges them
// into the profile. Extraction is best effort: a failed call or
// unparseable reply is logged and dropped, never surfaced to the
// visitor.
type Extractor struct {
	completer Completer
	manager   *Manager
}

func NewExtractor(completer Completer, manager *Manager) *Extractor {
	return &Extractor{completer: completer, manager: manager}
}

// ExtractAndStore runs one extraction over a completed exchange. The
// guide's answer travels with the visitor turn because facts often
// surface only in the reply ("adınız Deniz'di, değil mi?"). Meant to
// be called from a goroutine after the answer is already on its way.
func (e *Extractor) ExtractAndStore(ctx context.Context, userID, visitorTurn, guideTurn string) {
	visitorTurn = strings.TrimSpace(visitorTurn)
	if userID == "" || visitorTurn == "" {
		return
	}

	exchange := "Ziyaretçi: " + visitorTurn
	if guideTurn = strings.TrimSpace(guideTurn); guideTurn != "" {
		exchange += "\nRehber: " + guideTurn
	}

	reply, err := e.completer.Call(ctx, gateway.Request{
		System: extractionSystem,
		User:   exchange,
	})
	if err != nil {
		log.Printf("memory: extraction call failed for user %s: %v", userID, err)
		return
	}

	ex, ok := parseExtraction(reply)
	if !ok {
		log.Printf("memory: unparseable extraction reply for user %s", userID)
		return
	}
	if err := e.manager.Apply(ctx, userID, ex); err != nil {
		log.Printf("memory: apply extraction failed for user %s: %v", userID, err)
	}
}

// parseExtraction decodes the model reply, tolerating markdown code
// fences around the JSON body.
func parseExtraction(reply string) (Extraction, bool) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")
	reply = strings.TrimSpace(reply)

	var ex Extraction
	if err := json.Unmarshal([]byte(reply), &ex); err != nil {
		return Extraction{}, false
	}
	return ex, true
}
