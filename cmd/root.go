// Package cmd implements the command-line interface for ivq.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/ivq-cli/ivq/api"
	"github.com/ivq-cli/ivq/client"
	"github.com/ivq-cli/ivq/color"
	"github.com/ivq-cli/ivq/constant"
	"github.com/ivq-cli/ivq/gate"
	"github.com/ivq-cli/ivq/icon"
	"github.com/ivq-cli/ivq/key"
	"github.com/ivq-cli/ivq/locator"
	"github.com/ivq-cli/ivq/log"
	"github.com/ivq-cli/ivq/media"
	"github.com/ivq-cli/ivq/quiz"
	"github.com/ivq-cli/ivq/style"
	"github.com/ivq-cli/ivq/util"
	"github.com/ivq-cli/ivq/version"
	"github.com/ivq-cli/ivq/watchdog"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")
	rootCmd.Flags().StringP("title", "t", constant.Ivq, "Window title for the launched player")

	rootCmd.PersistentFlags().StringP("api-url", "a", "", "Base URL of the segmentation and quiz backend")
	lo.Must0(viper.BindPFlag(key.APIBaseURL, rootCmd.PersistentFlags().Lookup("api-url")))

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, plain)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().BoolP("save-progress", "H", true, "Persist gating progress to the localized history")
	lo.Must0(viper.BindPFlag(key.GateSaveProgress, rootCmd.PersistentFlags().Lookup("save-progress")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})
}

// rootCmd defines the entry point for the ivq application.
var rootCmd = &cobra.Command{
	Use:   constant.Ivq + " [url]",
	Short: "Gate video playback behind per-segment comprehension quizzes",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - Gate video playback behind per-segment comprehension quizzes"),
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		CheckDependencies()
		runGatekeeper(cmd, args)
	},
}

// runGatekeeper wires the whole pipeline together: player discovery, backend
// registration, the gating session, the quiz flow and the watchdog. It blocks
// until the player exits or the process is interrupted.
func runGatekeeper(cmd *cobra.Command, args []string) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	clientID, err := client.ID()
	handleErr(err)

	backend := api.NewClient(viper.GetString(key.APIBaseURL), clientID)
	session := gate.NewSession(backend, quiz.New(backend))
	binder := gate.NewBinder(session)

	page := media.NewSocketPage()

	var launched *media.MPV
	if len(args) > 0 {
		erase := util.PrintErasable(fmt.Sprintf("%s Starting player...", icon.Get(icon.Progress)))
		launched, err = media.Launch(args[0], lo.Must(cmd.Flags().GetString("title")))
		erase()
		handleErr(err)
		defer util.Ignore(launched.Close)
		page.Register(launched)
	}

	el, found := locator.WaitFor(ctx, page, locator.WaitTimeout()).Get()
	if !found {
		handleErr(errors.New("no running media player found"))
	}

	bindWithRetry(binder, el)

	dog := &watchdog.Watchdog{
		Page:    page,
		Current: binder.Current,
		Rebind: func(candidate media.Element) {
			if err := binder.Bind(candidate, false); err != nil {
				log.Errorf("watchdog rebind failed: %v", err)
			}
		},
	}
	dog.Start()
	defer dog.Stop()

	watchSettings(binder)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if launched != nil && !launched.Alive() {
				return
			}
		}
	}
}

// bindWithRetry keeps offering the element to the binder until registration
// succeeds or the user gives up. Playback is already paused on failure, so
// declining leaves the video gated shut.
func bindWithRetry(binder *gate.Binder, el media.Element) {
	for {
		err := binder.Bind(el, false)
		if err == nil {
			return
		}

		fmt.Printf("%s %s\n", icon.Get(icon.Fail), style.Fg(color.Red)("Backend unreachable."))
		fmt.Println(style.Faint(fmt.Sprintf(
			"Check that the API is running and that %s points at it. (%v)",
			viper.GetString(key.APIBaseURL), err,
		)))

		confirm := survey.Confirm{
			Message: "Retry connection?",
			Default: true,
		}
		var retry bool
		if err := survey.AskOne(&confirm, &retry); err != nil || !retry {
			handleErr(errors.New("backend unavailable, playback stays locked"))
		}
	}
}

// watchSettings reloads the session when the backend URL in the config file
// changes under a running process.
func watchSettings(binder *gate.Binder) {
	current := viper.GetString(key.APIBaseURL)

	viper.OnConfigChange(func(fsnotify.Event) {
		next := viper.GetString(key.APIBaseURL)
		if next == current {
			return
		}
		current = next
		log.Infof("backend URL changed to %s, reloading session", next)
		binder.ForceReload()
	})
	viper.WatchConfig()
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
