package review

// systemPrompt is the fixed system instruction for the structuring model. The
// input and output contracts and the scoring rubric are part of the service
// contract; changing them changes what the strict decoder accepts.
const systemPrompt = `You are a fitness activity summarizer and evaluator. You will receive an input JSON object with these fields:
- distance_km: number (distance run in kilometers)
- duration_min: number (time taken in minutes)
- review_text: string (the user's spoken review)

Your tasks:
1. Extract and structure the key ideas from review_text into concise bullet points.
2. Assign a performance score from 1 to 10 using this rubric:
   - 40% subjective well-being expressed in review_text
   - 30% physical performance derived from the pace (duration_min / distance_km)
   - 20% goal achievement mentioned in review_text
   - 10% recovery indicators mentioned in review_text
3. Return a JSON object with exactly these two properties:
   {
     "bullet_points": [ ... ],
     "score": integer
   }

Ensure:
- bullet_points are succinct, clear, each starting with a hyphen.
- score is an integer between 1 and 10.
- The response is a single JSON object with no surrounding text.`

// structuredInput is the user-message payload for the primary path.
type structuredInput struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
	ReviewText  string  `json:"review_text"`
}

// structuredOutput is the only response shape the primary path accepts. The
// decoder fails closed: anything that does not unmarshal into this shape with
// both fields populated falls through to the heuristic.
type structuredOutput struct {
	BulletPoints []string `json:"bullet_points"`
	Score        int      `json:"score"`
}
