package main

import "whisper-transcriber/cmd/whisperctl/cmd"

func main() {
	cmd.Execute()
}
