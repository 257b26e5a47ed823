package site

type stat struct {
	Value string
	Label string
}

type feature struct {
	Icon        string
	Title       string
	Description string
}

type step struct {
	Title       string
	Description string
}

type testimonial struct {
	Name    string
	Role    string
	Content string
	Rating  int
}

var landingStats = []stat{
	{Value: "50K+", Label: "Resumes Analyzed"},
	{Value: "94%", Label: "Success Rate"},
	{Value: "2.5x", Label: "More Interviews"},
	{Value: "4.9/5", Label: "User Rating"},
}

var landingFeatures = []feature{
	{Icon: "⚡", Title: "Instant Analysis", Description: "Get comprehensive feedback on your resume in seconds, not hours."},
	{Icon: "🛡", Title: "Secure & Private", Description: "Your data is processed securely and deleted immediately after analysis."},
	{Icon: "📈", Title: "ATS Optimization", Description: "Ensure your resume passes Applicant Tracking Systems successfully."},
}

var landingSteps = []step{
	{Title: "1. Upload", Description: "Upload your resume in PDF or DOCX format"},
	{Title: "2. Analyze", Description: "Our AI analyzes your resume across multiple criteria"},
	{Title: "3. Improve", Description: "Get actionable feedback and improve your score"},
}

var landingTestimonials = []testimonial{
	{
		Name:    "Sarah Johnson",
		Role:    "Marketing Manager",
		Content: "This tool helped me improve my resume score from 65 to 89. I got 3 interviews in the first week!",
		Rating:  5,
	},
	{
		Name:    "Michael Chen",
		Role:    "Software Engineer",
		Content: "The AI feedback was incredibly detailed and actionable. Highly recommend for anyone job hunting.",
		Rating:  5,
	},
	{
		Name:    "Emily Rodriguez",
		Role:    "Data Analyst",
		Content: "Finally, a resume checker that actually understands what recruiters are looking for.",
		Rating:  5,
	},
}
