package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"haccp-backend/internal/models"

	"go.uber.org/zap"
)

// Kullanıcıya dönen sabit cevaplar; asistan hiçbir zaman hata döndürmez
const (
	AnalysisEmpty       = "Aucune analyse générée."
	AnalysisUnavailable = "Désolé, l'analyse IA est temporairement indisponible."
	AdviceEmpty         = "Désolé, je ne peux pas répondre à cette question pour le moment."
	AdviceUnavailable   = "Désolé, le service d'assistance est momentanément hors ligne."
)

type Request struct {
	Prompt     string
	NoThinking bool
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Advisor: tek atımlık istek/cevap, konuşma geçmişi tutulmaz
type Advisor struct {
	gen     Generator // nil ise asistan kapalı
	timeout time.Duration
	log     *zap.Logger
}

func New(gen Generator, timeout time.Duration, log *zap.Logger) *Advisor {
	if log == nil {
		log = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Advisor{gen: gen, timeout: timeout, log: log}
}

func (a *Advisor) Enabled() bool {
	return a != nil && a.gen != nil
}

func CompliancePrompt(l models.DailyLog) string {
	var b strings.Builder
	b.WriteString("En tant qu'expert en sécurité alimentaire (HACCP), analyse le relevé journalier suivant d'un restaurant :\n")
	fmt.Fprintf(&b, "Date: %s\n", l.Date)
	b.WriteString("Contrôles effectués:\n")
	for _, it := range l.Items {
		status := "NON FAIT"
		if it.Completed {
			status = "VALIDE"
		}
		fmt.Fprintf(&b, "- %s: %s", it.Label, status)
		if it.Value != "" {
			fmt.Fprintf(&b, " (Valeur: %s)", it.Value)
		}
		b.WriteByte('\n')
	}
	b.WriteString("\nDonne un résumé rapide de la conformité, identifie les risques critiques s'il y en a, " +
		"et suggère une action corrective immédiate si nécessaire. " +
		"Réponds en français de manière concise et professionnelle.")
	return b.String()
}

func AdvicePrompt(question string) string {
	return fmt.Sprintf("Question sur la sécurité alimentaire en restauration : %s. "+
		"Réponds selon les normes d'hygiène françaises (HACCP).", question)
}

func (a *Advisor) generate(ctx context.Context, op string, req Request, empty, unavailable string) string {
	if !a.Enabled() {
		return unavailable
	}
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.gen.Generate(ctx, req)
	if err != nil {
		a.log.Warn("asistan isteği başarısız", zap.String("op", op), zap.Error(err))
		return unavailable
	}
	if strings.TrimSpace(text) == "" {
		return empty
	}
	return text
}

// AnalyzeCompliance: günlük kaydın uygunluk özeti
func (a *Advisor) AnalyzeCompliance(ctx context.Context, l models.DailyLog) string {
	return a.generate(ctx, "analyze compliance", Request{Prompt: CompliancePrompt(l), NoThinking: true}, AnalysisEmpty, AnalysisUnavailable)
}

// Ask: serbest hijyen sorusu
func (a *Advisor) Ask(ctx context.Context, question string) string {
	return a.generate(ctx, "ask", Request{Prompt: AdvicePrompt(question)}, AdviceEmpty, AdviceUnavailable)
}
