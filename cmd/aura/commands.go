package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/radheshpai87/aurahealth-core/internal/assess"
	"github.com/radheshpai87/aurahealth-core/internal/cycle"
	"github.com/radheshpai87/aurahealth-core/internal/emergency"
	"github.com/radheshpai87/aurahealth-core/internal/location"
	"github.com/radheshpai87/aurahealth-core/internal/model"
	"github.com/radheshpai87/aurahealth-core/internal/risk"
	"github.com/radheshpai87/aurahealth-core/internal/symptom"
	"github.com/radheshpai87/aurahealth-core/internal/syncq"
	"github.com/radheshpai87/aurahealth-core/internal/tracker"
)

// ------- shared arg helpers -------

func today() string {
	return time.Now().UTC().Format(model.DateLayout)
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseSymptomFlags maps loose tags (snake_case or camelCase) onto the
// fixed assessment schema. Unknown tags are reported, not dropped.
func parseSymptomFlags(tags []string) (model.SymptomFlags, error) {
	var f model.SymptomFlags
	for _, t := range tags {
		switch strings.ToLower(strings.ReplaceAll(t, "_", "")) {
		case "heavybleeding":
			f.HeavyBleeding = true
		case "fatigue":
			f.Fatigue = true
		case "dizziness":
			f.Dizziness = true
		case "lowhb":
			f.LowHb = true
		case "irregularcycles", "irregularcycle":
			f.IrregularCycles = true
		case "pain":
			f.Pain = true
		case "pregnancyissue":
			f.PregnancyIssue = true
		default:
			return f, fmt.Errorf("unknown symptom %q", t)
		}
	}
	return f, nil
}

func subcommand(args []string, known string) (string, []string) {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "expected one of: %s\n", known)
		os.Exit(2)
	}
	return args[0], args[1:]
}

// ------- profile -------

func cmdProfile(ctx context.Context, a *app, args []string) {
	sub, rest := subcommand(args, "set, show")
	a.requireUser(ctx)

	switch sub {
	case "set":
		fs := flag.NewFlagSet("profile set", flag.ExitOnError)
		age := fs.Int("age", 0, "age in years (10-60)")
		height := fs.Float64("height", 0, "height in cm")
		weight := fs.Float64("weight", 0, "weight in kg")
		cycleLen := fs.Int("cycle-len", 0, "average cycle length in days")
		stress := fs.Float64("base-stress", 0, "habitual stress (1-5)")
		sleep := fs.Float64("base-sleep", -1, "habitual sleep hours")
		exercise := fs.Float64("base-exercise", -1, "habitual exercise days/week")
		_ = fs.Parse(rest)

		p, err := a.users.Profile(ctx)
		if err != nil {
			fail(err)
		}
		if p == nil {
			p = &model.UserProfile{}
		}
		if *age > 0 {
			p.Age = *age
		}
		if *height > 0 {
			p.HeightCM = height
		}
		if *weight > 0 {
			p.WeightKG = weight
		}
		if *cycleLen > 0 {
			p.AvgCycleLen = cycleLen
		}
		if *stress > 0 {
			p.BaseStress = stress
		}
		if *sleep >= 0 {
			p.BaseSleep = sleep
		}
		if *exercise >= 0 {
			p.BaseExercise = exercise
		}

		if err := a.users.SaveProfile(ctx, *p); err != nil {
			fail(err)
		}
		saved, err := a.users.Profile(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(saved)

	case "show":
		p, err := a.users.Profile(ctx)
		if err != nil {
			fail(err)
		}
		if p == nil {
			fmt.Fprintln(os.Stderr, "no profile yet (aura profile set)")
			os.Exit(1)
		}
		printJSON(p)

	default:
		fail(fmt.Errorf("unknown profile subcommand %q", sub))
	}
}

// ------- observations -------

func cmdPeriod(ctx context.Context, a *app, args []string) {
	sub, rest := subcommand(args, "add, rm, list")
	a.requireUser(ctx)

	fs := flag.NewFlagSet("period "+sub, flag.ExitOnError)
	date := fs.String("date", today(), "date YYYY-MM-DD")
	_ = fs.Parse(rest)

	switch sub {
	case "add", "rm":
		dates, err := a.track.PeriodDates(ctx)
		if err != nil {
			fail(err)
		}
		marked := false
		for _, d := range dates {
			if d == *date {
				marked = true
				break
			}
		}
		// Toggle only when the set actually changes.
		if (sub == "add") != marked {
			if _, err := a.track.TogglePeriodDate(ctx, *date); err != nil {
				fail(err)
			}
		}
		fmt.Println("ok")

	case "list":
		dates, err := a.track.PeriodDates(ctx)
		if err != nil {
			fail(err)
		}
		if dates == nil {
			dates = []string{}
		}
		printJSON(dates)

	default:
		fail(fmt.Errorf("unknown period subcommand %q", sub))
	}
}

func cmdLog(ctx context.Context, a *app, args []string) {
	sub, rest := subcommand(args, "add, list")
	a.requireUser(ctx)

	switch sub {
	case "add":
		fs := flag.NewFlagSet("log add", flag.ExitOnError)
		date := fs.String("date", today(), "date YYYY-MM-DD")
		stress := fs.Int("stress", 3, "stress level 1-5")
		sleep := fs.Float64("sleep", 7, "sleep hours 0-12")
		exercise := fs.Int("exercise", 0, "exercise minutes 0-240")
		mood := fs.String("mood", "", "positive|neutral|negative")
		note := fs.String("note", "", "free-form note")
		_ = fs.Parse(rest)

		entry, err := a.track.UpsertDailyLog(ctx, model.DailyLog{
			Date:            *date,
			Stress:          *stress,
			SleepHours:      *sleep,
			ExerciseMinutes: *exercise,
			Mood:            model.Mood(*mood),
			Note:            *note,
		})
		if err != nil {
			fail(err)
		}
		printJSON(entry)

	case "list":
		logs, err := a.track.DailyLogs(ctx)
		if err != nil {
			fail(err)
		}
		if logs == nil {
			logs = []model.DailyLog{}
		}
		printJSON(logs)

	default:
		fail(fmt.Errorf("unknown log subcommand %q", sub))
	}
}

func cmdMood(ctx context.Context, a *app, args []string) {
	a.requireUser(ctx)
	fs := flag.NewFlagSet("mood", flag.ExitOnError)
	date := fs.String("date", today(), "date YYYY-MM-DD")
	tag := fs.String("tag", "", "positive|neutral|negative")
	_ = fs.Parse(args)

	if *tag == "" {
		moods, err := a.track.Moods(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(moods)
		return
	}
	if err := a.track.SetMood(ctx, *date, model.Mood(*tag)); err != nil {
		fail(err)
	}
	fmt.Println("ok")
}

func cmdFlow(ctx context.Context, a *app, args []string) {
	a.requireUser(ctx)
	fs := flag.NewFlagSet("flow", flag.ExitOnError)
	date := fs.String("date", today(), "date YYYY-MM-DD")
	tag := fs.String("tag", "", "none|light|medium|heavy")
	_ = fs.Parse(args)

	if *tag == "" {
		flows, err := a.track.Flows(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(flows)
		return
	}
	if err := a.track.SetFlow(ctx, *date, model.Flow(*tag)); err != nil {
		fail(err)
	}
	fmt.Println("ok")
}

func cmdSymptoms(ctx context.Context, a *app, args []string) {
	a.requireUser(ctx)
	fs := flag.NewFlagSet("symptoms", flag.ExitOnError)
	date := fs.String("date", today(), "date YYYY-MM-DD")
	tags := fs.String("tags", "", "comma-separated checklist tags")
	_ = fs.Parse(args)

	if *tags == "" {
		all, err := a.track.Symptoms(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(all)
		return
	}
	if err := a.track.LogSymptoms(ctx, *date, splitTags(*tags)); err != nil {
		fail(err)
	}
	fmt.Println("ok")
}

// ------- derived views -------

func cmdCycle(ctx context.Context, a *app) {
	a.requireUser(ctx)
	dates, err := a.track.PeriodDates(ctx)
	if err != nil {
		fail(err)
	}
	var recorded *int
	if p, err := a.users.Profile(ctx); err == nil && p != nil {
		recorded = p.AvgCycleLen
	}

	sum, err := cycle.Analyze(dates, time.Now().UTC(), recorded)
	if err != nil {
		fail(err)
	}
	if sum == nil {
		fmt.Fprintln(os.Stderr, "no period dates logged yet (aura period add)")
		os.Exit(1)
	}
	printJSON(sum)
}

func cmdChecklist(args []string) {
	fs := flag.NewFlagSet("checklist", flag.ExitOnError)
	tags := fs.String("tags", "", "comma-separated checklist tags")
	_ = fs.Parse(args)

	if *tags == "" {
		printJSON(symptom.KnownSymptoms())
		return
	}
	printJSON(symptom.ScoreChecklist(splitTags(*tags)))
}

func cmdHistory(ctx context.Context, a *app) {
	a.requireUser(ctx)
	hist, err := a.track.History(ctx)
	if err != nil {
		fail(err)
	}
	if hist == nil {
		hist = []model.RiskAssessment{}
	}
	printJSON(hist)
}

// ------- assessment -------

func cmdAssess(ctx context.Context, a *app, args []string, server string) {
	fs := flag.NewFlagSet("assess", flag.ExitOnError)
	symptoms := fs.String("symptoms", "", "comma-separated symptom flags")
	fainted := fs.Bool("fainted", false, "emergency: fainted")
	severePain := fs.Bool("severe-pain", false, "emergency: severe pain")
	vomiting := fs.Bool("vomiting", false, "emergency: vomiting")
	village := fs.String("village", "", "village code for aggregation")
	lang := fs.String("lang", "en", "en|hi")
	ml := fs.String("ml", "", "remote risk service base URL")
	_ = fs.Parse(args)

	a.requireUser(ctx)

	engine, err := risk.NewEngine(a.log)
	if err != nil {
		fail(err)
	}
	remote := assess.NewRemoteClient(assess.RemoteConfig{BaseURL: *ml}, a.log)
	queue := syncq.NewService(a.scoped, syncq.Config{BaseURL: server}, a.log)
	orch := assess.NewOrchestrator(engine, remote, a.track, queue, a.log)

	in := assess.Input{
		VillageCode: *village,
		Language:    *lang,
	}

	if p, err := a.users.Profile(ctx); err == nil {
		in.Profile = p
	}
	avgs, err := a.track.LifestyleAverages(ctx, 7, tracker.DefaultAverages)
	if err != nil {
		fail(err)
	}
	in.Lifestyle = avgs

	dates, err := a.track.PeriodDates(ctx)
	if err != nil {
		fail(err)
	}
	var recorded *int
	if in.Profile != nil {
		recorded = in.Profile.AvgCycleLen
	}
	if sum, err := cycle.Analyze(dates, time.Now().UTC(), recorded); err == nil && sum != nil {
		in.CycleLength = &sum.CycleLength
	}

	if flags, err := parseSymptomFlags(splitTags(*symptoms)); err != nil {
		fail(err)
	} else if flags.Any() {
		in.Symptoms = &flags
	}
	if *fainted || *severePain || *vomiting {
		in.Emergency = &model.EmergencyFlags{
			Fainted:    *fainted,
			SeverePain: *severePain,
			Vomiting:   *vomiting,
		}
	}

	printJSON(orch.Assess(ctx, in))
}

// ------- emergency -------

func cmdEmergency(ctx context.Context, a *app, args []string) {
	fs := flag.NewFlagSet("emergency", flag.ExitOnError)
	level := fs.String("level", "", "LOW|MODERATE|HIGH")
	symptoms := fs.String("symptoms", "", "comma-separated checklist tags")
	contacts := fs.String("contacts", "", "comma-separated recipients")
	lat := fs.Float64("lat", 0, "latitude")
	lon := fs.Float64("lon", 0, "longitude")
	lang := fs.String("lang", "en", "en|hi")
	_ = fs.Parse(args)

	u := a.requireUser(ctx)

	alert := emergency.Classify(model.RiskLevel(strings.ToUpper(*level)), splitTags(*symptoms))
	if alert == nil {
		fmt.Println("no alert warranted at this level")
		return
	}

	var coords *location.Coordinates
	if *lat != 0 || *lon != 0 {
		coords = &location.Coordinates{Latitude: *lat, Longitude: *lon}
	}
	body := emergency.BuildMessage(*alert, u.Name, *lang, coords)

	recipients := splitTags(*contacts)
	recipients = append(recipients, alert.Hotline)
	results := emergency.Broadcast(ctx, emergency.NewSimulatedDispatcher(a.log), recipients, body)

	printJSON(struct {
		Alert   emergency.Alert        `json:"alert"`
		Message string                 `json:"message"`
		Sent    []emergency.SendResult `json:"sent"`
	}{*alert, body, results})
}

// ------- sync -------

func cmdSync(ctx context.Context, a *app, args []string, server string) {
	sub, rest := subcommand(args, "now, status, watch")
	_ = rest
	a.requireUser(ctx)

	if server == "" {
		fmt.Fprintln(os.Stderr, "sync needs -server URL")
		os.Exit(1)
	}
	q := syncq.NewService(a.scoped, syncq.Config{BaseURL: server}, a.log)

	switch sub {
	case "now":
		rep, err := q.SyncNow(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(rep)

	case "status":
		pending, err := q.Pending(ctx)
		if err != nil {
			fail(err)
		}
		dead, err := q.DeadLetters(ctx)
		if err != nil {
			fail(err)
		}
		last, err := q.LastSync(ctx)
		if err != nil {
			fail(err)
		}
		printJSON(struct {
			Online   bool       `json:"online"`
			Pending  int        `json:"pending"`
			Dead     int        `json:"dead"`
			LastSync *time.Time `json:"last_sync,omitempty"`
		}{q.Available(ctx), pending, len(dead), last})

	case "watch":
		// Dispatch loop outlives the command timeout; stop on signal.
		wctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		fmt.Fprintln(os.Stderr, "dispatching every 5m, ^C to stop")
		q.Run(wctx)

	default:
		fail(fmt.Errorf("unknown sync subcommand %q", sub))
	}
}
