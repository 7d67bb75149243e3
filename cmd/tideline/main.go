package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli/v2"

	"tideline.pugetsound.org/internal/app"
	"tideline.pugetsound.org/internal/appconf"
	"tideline.pugetsound.org/internal/models"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cliApp := &cli.App{
		Name:  "tideline",
		Usage: "Washington State Ferries departure companion",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a YAML config file",
			},
			&cli.StringFlag{
				Name:  "env",
				Value: "development",
				Usage: "application environment (development, test, production)",
			},
		},
		Commands: []*cli.Command{
			departuresCommand(),
			alertsCommand(),
			refreshCommand(),
			alarmCommand(),
			nearbyCommand(),
			dumpCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		logger.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func buildApplication(c *cli.Context) (*app.Application, error) {
	env := appconf.EnvFlagToEnvironment(c.String("env"))
	cfg, err := appconf.Load(c.String("config"), env)
	if err != nil {
		return nil, err
	}
	return app.NewApplication(cfg, nil, slog.Default())
}

func departuresCommand() *cli.Command {
	return &cli.Command{
		Name:      "departures",
		Usage:     "Show today's remaining departures",
		ArgsUsage: "[route]",
		Action: func(c *cli.Context) error {
			application, err := buildApplication(c)
			if err != nil {
				return err
			}
			defer application.Shutdown()

			routes := application.Registry.DisplayRoutes()
			if name := c.Args().First(); name != "" {
				route, ok := application.Registry.Find(name)
				if !ok {
					return fmt.Errorf("unknown route %q", name)
				}
				routes = []*models.Route{route}
			}

			for _, route := range routes {
				for _, dir := range []models.Direction{models.West, models.East} {
					printDepartures(application, route, dir)
				}
			}
			return nil
		},
	}
}

func printDepartures(application *app.Application, route *models.Route, dir models.Direction) {
	origin, ok := application.Registry.TerminalFrom(route, dir)
	if !ok {
		return
	}
	fmt.Printf("%s from %s:\n", route.DisplayName[dir], origin.Name)

	departures := application.Registry.FutureDepartures(route, dir)
	if len(departures) == 0 {
		fmt.Println("  no more sailings today")
		return
	}
	for _, departure := range departures {
		goodness := application.Registry.GoodnessFor(route, dir, departure)
		fmt.Printf("  %s %s\n", application.Formatter.Display(departure), goodnessMark(goodness))
	}
}

func goodnessMark(g models.Goodness) string {
	switch g {
	case models.Good:
		return "(good)"
	case models.Risky:
		return "(risky)"
	case models.TooLate:
		return "(too late)"
	default:
		return ""
	}
}

func alertsCommand() *cli.Command {
	return &cli.Command{
		Name:      "alerts",
		Usage:     "Show service alerts, optionally for one route",
		ArgsUsage: "[route]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "mark-read",
				Usage: "mark the listed alerts as read",
			},
		},
		Action: func(c *cli.Context) error {
			application, err := buildApplication(c)
			if err != nil {
				return err
			}
			defer application.Shutdown()

			var list []*models.Alert
			if name := c.Args().First(); name != "" {
				route, ok := application.Registry.Find(name)
				if !ok {
					return fmt.Errorf("unknown route %q", name)
				}
				list = application.Alerts.AlertsFor(route)
			} else {
				list = application.Alerts.All()
			}

			if len(list) == 0 {
				fmt.Println("no alerts")
				return nil
			}
			for _, alert := range list {
				marker := " "
				if alert.Unread {
					marker = "*"
				}
				fmt.Printf("%s %s\n%s\n", marker, alert.ID, alert.Body)
				if c.Bool("mark-read") {
					if err := application.Alerts.MarkRead(alert); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
}

func refreshCommand() *cli.Command {
	return &cli.Command{
		Name:      "refresh",
		Usage:     "Apply a feed payload from a file",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			path := c.Args().First()
			if path == "" {
				return fmt.Errorf("usage: refresh <file>")
			}
			application, err := buildApplication(c)
			if err != nil {
				return err
			}
			defer application.Shutdown()

			if !application.AllowRefresh() {
				return fmt.Errorf("refreshed too recently, try again later")
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			return application.ApplyUpdate(string(data))
		},
	}
}

func alarmCommand() *cli.Command {
	return &cli.Command{
		Name:  "alarm",
		Usage: "Manage the leave-by alarm",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Set an alarm for a sailing",
				ArgsUsage: "<route> <west|east> <minutes-past-midnight> [leave-by]",
				Action:    alarmSetAction,
			},
			{
				Name:  "status",
				Usage: "Show the confirmed alarm",
				Action: func(c *cli.Context) error {
					application, err := buildApplication(c)
					if err != nil {
						return err
					}
					defer application.Shutdown()

					active, ok := application.Planner.CheckActive()
					if !ok {
						fmt.Println("no alarm set")
						return nil
					}
					remaining, _ := application.Planner.Remaining()
					fmt.Printf("leave by %s (%s from now)\n",
						application.Formatter.Display(active.LeaveByTime),
						remaining.Round(time.Minute))
					return nil
				},
			},
			{
				Name:  "dismiss",
				Usage: "Cancel the confirmed alarm",
				Action: func(c *cli.Context) error {
					application, err := buildApplication(c)
					if err != nil {
						return err
					}
					defer application.Shutdown()
					application.Planner.Dismiss()
					return nil
				},
			},
		},
	}
}

func alarmSetAction(c *cli.Context) error {
	if c.NArg() < 3 {
		return fmt.Errorf("usage: alarm set <route> <west|east> <minutes-past-midnight> [leave-by]")
	}
	application, err := buildApplication(c)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	route, ok := application.Registry.Find(c.Args().Get(0))
	if !ok {
		return fmt.Errorf("unknown route %q", c.Args().Get(0))
	}
	dir := models.East
	if c.Args().Get(1) == "west" {
		dir = models.West
	}
	ferryTime, err := strconv.Atoi(c.Args().Get(2))
	if err != nil {
		return fmt.Errorf("invalid sailing time %q", c.Args().Get(2))
	}

	application.Planner.Configure(route.Code, dir, ferryTime)
	leaveBy, _ := application.Planner.LeaveBy()
	if arg := c.Args().Get(3); arg != "" {
		leaveBy, err = strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid leave-by time %q", arg)
		}
	}
	if err := application.ConfirmAlarm(leaveBy); err != nil {
		return err
	}
	fmt.Printf("alarm set: leave by %s\n", application.Formatter.Display(leaveBy))
	return nil
}

func nearbyCommand() *cli.Command {
	return &cli.Command{
		Name:  "nearby",
		Usage: "Show the terminal closest to a position",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "lat", Required: true},
			&cli.Float64Flag{Name: "lon", Required: true},
		},
		Action: func(c *cli.Context) error {
			application, err := buildApplication(c)
			if err != nil {
				return err
			}
			defer application.Shutdown()

			pos := models.Position{Lat: c.Float64("lat"), Lon: c.Float64("lon")}
			term, dist, ok := application.Terminals.Nearest(pos)
			if !ok {
				return fmt.Errorf("no terminals indexed")
			}
			fmt.Printf("%s (%.1f km away)\n", term.Name, dist/1000)
			return nil
		},
	}
}

func dumpCommand() *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Dump internal state for debugging",
		Action: func(c *cli.Context) error {
			application, err := buildApplication(c)
			if err != nil {
				return err
			}
			defer application.Shutdown()

			dumper := spew.ConfigState{Indent: "  ", MaxDepth: 4}
			dumper.Dump(dumpState{
				Now:          application.Times.Now(),
				DayOfWeek:    application.Times.DayOfWeek(),
				ScheduleType: application.Times.ScheduleTypeForToday(),
				CacheDate:    application.CacheDate(),
				Routes:       application.Registry.DisplayRoutes(),
				Alerts:       application.Alerts.All(),
			})
			return nil
		},
	}
}

type dumpState struct {
	Now          int
	DayOfWeek    int
	ScheduleType models.SchedType
	CacheDate    string
	Routes       []*models.Route
	Alerts       []*models.Alert
}
