package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"easylesson/internal/apiclient"
	"easylesson/internal/models"
)

var (
	// generate flags
	genKind    string
	genRequest models.GenerationRequest
	genWords   int
	// list flags
	listKind   string
	listLimit  int
	listOffset int
	// continue flags
	contKind    string
	contRequest models.ContinuationRequest
	contLength  int
	contFile    string
	// narrate flags
	narrateForce bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server version and configured backends",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a story or lesson",
	Long: `Generates a new record on the server and prints it.

Example:
  lessonctl generate --kind story --grade university --subject History --topic "Silk Road" --vocab`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored records, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Fetch one record",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a record and its archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var continueCmd = &cobra.Command{
	Use:   "continue [id]",
	Short: "Continue a story or lesson",
	Long: `Asks the server for a continuation.

With --kind lesson the stored lesson is continued and the merged lesson is
saved. With --kind story the original text comes from --file (or "-" for
stdin), falling back to the stored record.`,
	Args: cobra.ExactArgs(1),
	RunE: runContinue,
}

var gradeCmd = &cobra.Command{
	Use:   "grade [id] [question=option]...",
	Short: "Grade quiz answers",
	Long: `Grades answers against a stored quiz. Questions and options are zero-based.

Example:
  lessonctl grade 3f6c... 0=2 1=0 2=3`,
	Args: cobra.MinimumNArgs(2),
	RunE: runGrade,
}

var narrateCmd = &cobra.Command{
	Use:   "narrate [id]",
	Short: "Get an MP3 narration URL for a record",
	Args:  cobra.ExactArgs(1),
	RunE:  runNarrate,
}

func registerGenerateFlags() {
	f := generateCmd.Flags()
	f.StringVar(&genKind, "kind", string(models.KindLesson), "story or lesson")
	f.StringVar(&genRequest.AcademicGrade, "grade", "", "grade 1-12 or university")
	f.StringVar(&genRequest.Subject, "subject", "", "subject area")
	f.StringVar(&genRequest.OtherSubject, "other-subject", "", "subject name when --subject is other")
	f.StringVar(&genRequest.Topic, "topic", "", "specific topic focus")
	f.StringVar(&genRequest.Setting, "setting", "", "story setting")
	f.StringVar(&genRequest.MainCharacter, "character", "", "main character")
	f.StringVar(&genRequest.TeacherStyle, "style", "", "teacher style")
	f.StringVar(&genRequest.Language, "language", models.DefaultLanguage, "output language")
	f.IntVar(&genWords, "words", models.DefaultWordCount, "approximate word count")
	f.BoolVar(&genRequest.GenerateVocabulary, "vocab", false, "include vocabulary")
	f.BoolVar(&genRequest.GenerateSummary, "summary", false, "include a summary")
	f.BoolVar(&genRequest.GenerateQuiz, "quiz", false, "include a quiz")
	f.StringVar(&genRequest.UserPromptAddition, "prompt", "", "additional instructions")
	_ = generateCmd.MarkFlagRequired("grade")
	_ = generateCmd.MarkFlagRequired("subject")
}

func registerListFlags() {
	f := listCmd.Flags()
	f.StringVar(&listKind, "kind", "", "filter by story or lesson")
	f.IntVar(&listLimit, "limit", 0, "page size")
	f.IntVar(&listOffset, "offset", 0, "records to skip")
}

func registerContinueFlags() {
	f := continueCmd.Flags()
	f.StringVar(&contKind, "kind", string(models.KindLesson), "story or lesson")
	f.IntVar(&contLength, "length", models.DefaultWordCount, "approximate words to add")
	f.StringVar(&contRequest.Difficulty, "difficulty", string(models.SameLevel), "much_easier, slightly_easier, same_level, slightly_harder, much_harder")
	f.StringVar(&contRequest.Focus, "focus", models.DefaultFocus, "theme to develop")
	f.BoolVar(&contRequest.GenerateSummary, "summary", false, "include a summary")
	f.StringVar(&contRequest.Prompt, "prompt", "", "additional instructions")
	f.StringVar(&contFile, "file", "", "read the original text from a file, - for stdin")
}

func runStatus(cmd *cobra.Command, args []string) error {
	st, err := newClient().Status(cmd.Context())
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), st)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(genKind)
	if err != nil {
		return err
	}
	req := genRequest
	req.WordCount = models.FlexInt(genWords)

	c := newClient()
	var rec *models.Record
	if kind == models.KindStory {
		rec, err = c.GenerateStory(cmd.Context(), req)
	} else {
		rec, err = c.GenerateLesson(cmd.Context(), req)
	}
	if err != nil {
		return err
	}
	if models.IsMockID(rec.ID) {
		log.Warn("server unreachable, printing placeholder content", "id", rec.ID)
	}
	return printJSON(cmd.OutOrStdout(), rec)
}

func runList(cmd *cobra.Command, args []string) error {
	opts := apiclient.ListOptions{Limit: listLimit, Offset: listOffset}
	if listKind != "" {
		kind, err := parseKind(listKind)
		if err != nil {
			return err
		}
		opts.Kind = kind
	}
	list, err := newClient().ListLessons(cmd.Context(), opts)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), list)
}

func runGet(cmd *cobra.Command, args []string) error {
	rec, err := newClient().GetLesson(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), rec)
}

func runDelete(cmd *cobra.Command, args []string) error {
	if err := newClient().DeleteLesson(cmd.Context(), args[0]); err != nil {
		if apiclient.IsNotFound(err) {
			return fmt.Errorf("record %s not found", args[0])
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
	return nil
}

func runContinue(cmd *cobra.Command, args []string) error {
	kind, err := parseKind(contKind)
	if err != nil {
		return err
	}
	req := contRequest
	req.Length = models.FlexInt(contLength)
	if contFile != "" {
		text, err := readOriginal(cmd.InOrStdin(), contFile)
		if err != nil {
			return err
		}
		req.OriginalContent = text
	}

	c := newClient()
	if kind == models.KindStory {
		resp, err := c.ContinueStory(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), resp)
	}
	resp, err := c.ContinueLesson(cmd.Context(), args[0], req)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func runGrade(cmd *cobra.Command, args []string) error {
	answers, err := parseAnswers(args[1:])
	if err != nil {
		return err
	}
	res, err := newClient().GradeQuiz(cmd.Context(), args[0], answers)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func runNarrate(cmd *cobra.Command, args []string) error {
	u, err := newClient().Narrate(cmd.Context(), args[0], narrateForce)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), u)
	return nil
}

func parseKind(s string) (models.Kind, error) {
	kind := models.Kind(strings.ToLower(strings.TrimSpace(s)))
	if !kind.Valid() {
		return "", fmt.Errorf("unknown kind %q (want story or lesson)", s)
	}
	return kind, nil
}

// parseAnswers turns "0=2" pairs into question index -> option index.
func parseAnswers(pairs []string) (map[int]int, error) {
	answers := make(map[int]int, len(pairs))
	for _, p := range pairs {
		q, o, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("bad answer %q, want question=option", p)
		}
		qi, err := strconv.Atoi(strings.TrimSpace(q))
		if err != nil || qi < 0 {
			return nil, fmt.Errorf("bad question index in %q", p)
		}
		oi, err := strconv.Atoi(strings.TrimSpace(o))
		if err != nil || oi < 0 {
			return nil, fmt.Errorf("bad option index in %q", p)
		}
		answers[qi] = oi
	}
	return answers, nil
}

func readOriginal(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read original text: %w", err)
	}
	return string(data), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
