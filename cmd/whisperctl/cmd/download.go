package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.uber.org/zap"

	"whisper-transcriber/internal/domain"
)

var force bool

var downloadCmd = &cobra.Command{
	Use:   "download [size]",
	Short: "Download weights for a model size (default: selected size)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		size := e.settings.ModelSize
		if len(args) == 1 {
			if size, err = domain.ParseModelSize(args[0]); err != nil {
				return err
			}
		}

		path, err := e.cache.Path(size)
		if err != nil {
			return err
		}
		if e.cache.Exists(size) && !force {
			fmt.Printf("%s model is already cached at %s (use --force to download again)\n", size, path)
			return nil
		}

		progress := mpb.New(
			mpb.WithOutput(os.Stderr),
			mpb.WithRefreshRate(120*time.Millisecond),
		)
		name := fmt.Sprintf("%s model", size)
		bar := progress.AddBar(0,
			mpb.PrependDecorators(
				decor.Name(name+" ", decor.WC{W: len(name) + 1, C: decor.DindentRight}),
				decor.CountersKibiByte("% .1f / % .1f", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.NewPercentage("%.1f", decor.WCSyncSpace),
				decor.OnComplete(decor.EwmaETA(decor.ET_STYLE_GO, 30, decor.WCSyncWidth), " done"),
			),
		)

		var last int64
		tick := time.Now()
		saved, err := e.cache.Download(context.Background(), size, func(written, total int64) {
			if total > 0 {
				bar.SetTotal(total, false)
			}
			bar.EwmaIncrInt64(written-last, time.Since(tick))
			last, tick = written, time.Now()
		})
		if err != nil {
			bar.Abort(false)
			progress.Wait()
			return err
		}
		bar.SetTotal(-1, true)
		progress.Wait()

		e.logger.Info("model downloaded", zap.String("size", string(size)), zap.String("path", saved))
		fmt.Println(saved)
		return nil
	},
}

func init() {
	downloadCmd.Flags().BoolVar(&force, "force", false, "download even when the model is already cached")
}
