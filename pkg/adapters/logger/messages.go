package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Session level messages (info)
		"Recording started": "録画を開始しました",
		"Recording stopping, draining in-flight frames": "録画を停止中、処理中のフレームを排出しています",
		"Session closed, %d frames encoded":             "セッションを終了しました、%d フレームをエンコード",
		"Interrupted, shutting down...":                 "中断されました。シャットダウン中...",
		"Recording %s for %.1f seconds...":              "%s を %.1f 秒間録画中...",
		"Recording %dx%d at %.4g fps...":                "%dx%d を %.4g fps で録画中...",
		"Output saved to %s (%d frames, %d bytes)":      "出力を %s に保存しました (%d フレーム, %d バイト)",
		"Output saved to %s":                            "出力を %s に保存しました",
		"Output saved to %s (%d frames encoded, %d dropped)": "出力を %s に保存しました (%d フレームをエンコード, %d 破棄)",
		"Snapshot saved to %s":                               "スナップショットを %s に保存しました",
		"Skipped %d frames: no free buffer at tick":          "%d フレームをスキップ: ティック時に空きバッファなし",

		// Recorder internals (debug)
		"Session ready: %dx%d %s at %g fps, pool depth %d": "セッション準備完了: %dx%d %s %g fps, プール深度 %d",
		"Encoder started: %dx%d %s at %g fps":              "エンコーダー起動: %dx%d %s %g fps",

		// Warnings
		"Frame dropped: buffer slot %d not readable within %s": "フレームを破棄: バッファスロット %d が %s 以内に読み取り可能になりませんでした",
		"End of stream before any frame; no output written":    "フレームなしでストリームが終了、出力は書き込まれません",
		"Pipeline close: %s":                                   "パイプラインのクローズ: %s",

		// Errors
		"Encode pipeline failed: %s": "エンコードパイプラインが失敗しました: %s",
		"Failed to write output: %s": "出力の書き込みに失敗しました: %s",
	})
}
