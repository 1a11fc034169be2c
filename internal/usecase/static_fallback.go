package usecase

import "strings"

// StaticResponder produces canned medical responses used as the last resort
// when generation is exhausted. Responses are keyed on topic substrings with
// a generic default; all of them direct the user to professional care.
type StaticResponder struct{}

// NewStaticResponder creates the canned-response fallback.
func NewStaticResponder() *StaticResponder {
	return &StaticResponder{}
}

// Respond picks a canned answer for the message topic.
func (s *StaticResponder) Respond(message string) string {
	lower := strings.ToLower(message)

	if strings.Contains(lower, "diabetes") {
		return staticDiabetesResponse
	}
	if strings.Contains(lower, "leukemia") {
		return staticLeukemiaResponse
	}
	return staticGenericResponse
}

const staticDiabetesResponse = `I apologize, but I'm currently experiencing connectivity issues with my advanced systems. However, I can provide some basic information about diabetes:

**Common Diabetes Symptoms:**
- Increased thirst and frequent urination
- Extreme fatigue
- Blurred vision
- Slow-healing cuts and wounds
- Unexplained weight loss (Type 1)
- Tingling or numbness in hands/feet

**Important:** Please consult with a healthcare professional for proper diagnosis and treatment. This is general information and should not replace professional medical advice.

*Note: I'm currently operating in limited mode due to technical issues. Please try again later for more detailed responses.*`

const staticLeukemiaResponse = `I apologize, but I'm currently experiencing connectivity issues. Here's basic information about leukemia symptoms:

**Common Leukemia Symptoms:**
- Fatigue and weakness
- Frequent infections
- Easy bruising or bleeding
- Swollen lymph nodes
- Unexplained weight loss
- Fever or night sweats
- Bone or joint pain

**Critical:** Leukemia is a serious condition requiring immediate medical attention. Please consult an oncologist or hematologist for proper evaluation and treatment.

*Note: I'm currently operating in limited mode due to technical issues. Please try again later for more comprehensive information.*`

const staticGenericResponse = `I apologize, but I'm currently experiencing technical difficulties connecting to my advanced medical knowledge systems.

**General Medical Advice:**
For any health concerns, I strongly recommend:
- Consulting with a qualified healthcare professional
- Seeking immediate medical attention for urgent symptoms
- Following up with your primary care physician

**Emergency:** If you're experiencing a medical emergency, please call emergency services immediately.

*Note: I'm currently operating in limited mode. Please try again later when my full medical assistance capabilities are restored.*`
