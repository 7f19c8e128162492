package backend

import "context"

// QuestionEvaluation scores one answered question.
type QuestionEvaluation struct {
	QuestionNumber int      `json:"questionNumber"`
	QuestionType   string   `json:"questionType"`
	Score          int      `json:"score"`
	Feedback       string   `json:"feedback"`
	Strengths      []string `json:"strengths"`
	Improvements   []string `json:"improvements"`
}

// SkillAnalysis aggregates scores for one skill within an interview.
type SkillAnalysis struct {
	SkillName      string   `json:"skillName"`
	AverageScore   float64  `json:"averageScore"`
	QuestionsCount int      `json:"questionsCount"`
	Performance    string   `json:"performance"`
	KeyPoints      []string `json:"keyPoints"`
}

// InterviewReport is the scored feedback for a finished interview.
type InterviewReport struct {
	InterviewID         string                   `json:"interviewId"`
	OverallScore        float64                  `json:"overallScore"`
	TotalQuestions      int                      `json:"totalQuestions"`
	SkillsAnalysis      map[string]SkillAnalysis `json:"skillsAnalysis"`
	Strengths           []string                 `json:"strengths"`
	Weaknesses          []string                 `json:"weaknesses"`
	Recommendations     []string                 `json:"recommendations"`
	QuestionEvaluations []QuestionEvaluation     `json:"questionEvaluations"`
}

// SkillProgress tracks one skill across interviews.
type SkillProgress struct {
	SkillName     string  `json:"skillName"`
	CurrentScore  float64 `json:"currentScore"`
	PreviousScore float64 `json:"previousScore"`
	Improvement   float64 `json:"improvement"`
	Trend         string  `json:"trend"`
}

// InterviewResult is a recent-interview row in progress analytics.
type InterviewResult struct {
	InterviewID string  `json:"interviewId"`
	Position    string  `json:"position"`
	Date        string  `json:"date"`
	Score       float64 `json:"score"`
	Status      string  `json:"status"`
}

// ProgressAnalytics summarizes a user's history.
type ProgressAnalytics struct {
	TotalInterviews  int                      `json:"totalInterviews"`
	AverageScore     float64                  `json:"averageScore"`
	ScoreImprovement float64                  `json:"scoreImprovement"`
	SkillsProgress   map[string]SkillProgress `json:"skillsProgress"`
	RecentInterviews []InterviewResult        `json:"recentInterviews"`
}

// InterviewReport fetches scored feedback for one interview.
func (c *Client) InterviewReport(ctx context.Context, id string) (InterviewReport, error) {
	var report InterviewReport
	err := c.getJSON(ctx, &report, "analytics", "interviews", id, "report")
	return report, err
}

// Progress fetches progress analytics for the signed-in user.
func (c *Client) Progress(ctx context.Context) (ProgressAnalytics, error) {
	var progress ProgressAnalytics
	err := c.getJSON(ctx, &progress, "analytics", "progress")
	return progress, err
}

// Skills fetches the aggregated skill analysis for the signed-in user.
func (c *Client) Skills(ctx context.Context) (SkillAnalysis, error) {
	var skills SkillAnalysis
	err := c.getJSON(ctx, &skills, "analytics", "skills")
	return skills, err
}
