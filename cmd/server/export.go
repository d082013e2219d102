package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"haccp-backend/internal/inventory"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// exportFunc: dosya adı + içerik üretir
type exportFunc func(ctx context.Context, s *services) (string, []byte, error)

func newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Registre PDF'lerini ve stok dosyasını sunucu olmadan üretir",
	}
	cmd.PersistentFlags().StringVarP(&out, "out", "o", "", "çıktı dosyası (boşsa varsayılan ad)")

	var date string
	daily := &cobra.Command{
		Use:   "daily",
		Short: "Günlük registre PDF'i",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), out, func(ctx context.Context, s *services) (string, []byte, error) {
				if date == "" {
					date = time.Now().In(s.renderer.Location()).Format("2006-01-02")
				}
				l, ok, err := s.logs.Find(ctx, date)
				if err != nil {
					return "", nil, err
				}
				if !ok {
					return "", nil, fmt.Errorf("%s tarihli kayıt yok", date)
				}
				data, err := s.renderer.Daily(l)
				return fmt.Sprintf("HACCP_%s.pdf", date), data, err
			})
		},
	}
	daily.Flags().StringVar(&date, "date", "", "tarih (2006-01-02), varsayılan bugün")

	history := &cobra.Command{
		Use:   "history",
		Short: "Tüm günlerin özet PDF'i",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), out, func(ctx context.Context, s *services) (string, []byte, error) {
				logs := s.logs.List(ctx).Data
				if len(logs) == 0 {
					return "", nil, errors.New("dışa aktarılacak kayıt yok")
				}
				data, err := s.renderer.History(logs)
				return fmt.Sprintf("HACCP_Historique_%s.pdf", time.Now().Format("2006-01-02")), data, err
			})
		},
	}

	var month string
	trace := &cobra.Command{
		Use:   "traceability",
		Short: "Aylık traçabilité registresi (fotoğraflarla)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), out, func(ctx context.Context, s *services) (string, []byte, error) {
				if month == "" {
					month = time.Now().In(s.renderer.Location()).Format("2006-01")
				}
				res, err := s.trace.List(ctx, month)
				if err != nil {
					return "", nil, err
				}
				if len(res.Data) == 0 {
					return "", nil, fmt.Errorf("%s ayında kayıt yok", month)
				}
				data, err := s.renderer.Traceability(ctx, res.Data, month)
				return fmt.Sprintf("Tracabilite_%s.pdf", month), data, err
			})
		},
	}
	trace.Flags().StringVar(&month, "month", "", "ay (2006-01), varsayılan bu ay")

	stock := &cobra.Command{
		Use:   "stock",
		Short: "Stok ve son hareketler (.xlsx)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), out, func(ctx context.Context, s *services) (string, []byte, error) {
				data, err := inventory.ExportWorkbook(s.inventory.Items(ctx).Data, s.inventory.Movements(ctx).Data)
				return fmt.Sprintf("Stock_%s.xlsx", time.Now().Format("2006-01-02")), data, err
			})
		},
	}

	cmd.AddCommand(daily, history, trace, stock)
	return cmd
}

func runExport(ctx context.Context, out string, fn exportFunc) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	s, err := buildServices(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer s.Close()

	name, data, err := fn(ctx, s)
	if err != nil {
		return err
	}
	if out == "" {
		out = name
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("dosya yazılamadı: %w", err)
	}
	log.Info("dışa aktarıldı", zap.String("file", out), zap.Int("bytes", len(data)))
	return nil
}
