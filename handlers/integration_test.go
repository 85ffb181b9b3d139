// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danielhkuo/sealed-survey/decryption"
	"github.com/danielhkuo/sealed-survey/models"
	"github.com/danielhkuo/sealed-survey/survey"
	"github.com/danielhkuo/sealed-survey/testutil"
)

// TestFullSurveyWorkflow tests the complete end-to-end workflow:
// 1. Read the survey and its questions
// 2. Participants submit sealed answers
// 3. A repeated answer is refused
// 4. Counts stay private
// 5. Reveal the question
// 6. Decrypt the revealed counts
func TestFullSurveyWorkflow(t *testing.T) {
	f := testutil.NewFixture(t)
	surveyHandler := NewSurveyHandler(f.Engine)
	decryptionHandler := NewDecryptionHandler(startService(t, f))

	// Step 1: Read the survey
	w := httptest.NewRecorder()
	surveyHandler.GetSurvey(w, httptest.NewRequest("GET", "/survey", nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var info models.SurveyInfo
	testutil.AssertJSON(t, w, &info)
	if info.QuestionCount != 5 {
		t.Fatalf("Step 1 - Expected 5 questions, got %d", info.QuestionCount)
	}
	t.Logf("Step 1 - Survey at %s", info.InstanceAddress.Hex())

	// Step 2: Three participants answer question 0 with 1, 1 and 3
	choices := []int{1, 1, 3}
	participants := make([]testutil.Participant, len(choices))
	for i, choice := range choices {
		p := testutil.NewParticipant(t)
		participants[i] = p

		w := submitAnswer(t, surveyHandler, p, 0, answerRequest(t, f, p, 0, choice))
		if w.Code != http.StatusCreated {
			t.Fatalf("Step 2 - Answer %d failed: %d - %s", i, w.Code, w.Body.String())
		}
	}
	t.Logf("Step 2 - Submitted %d answers", len(choices))

	// Step 3: The first participant tries again
	w = submitAnswer(t, surveyHandler, participants[0], 0, answerRequest(t, f, participants[0], 0, 2))
	if w.Code != http.StatusConflict {
		t.Fatalf("Step 3 - Expected 409 for a second answer, got %d", w.Code)
	}

	// Step 4: Counter handles are not decryptable yet
	req := httptest.NewRequest("GET", "/questions/0/counts", nil)
	req.SetPathValue("id", "0")
	w = httptest.NewRecorder()
	surveyHandler.GetEncryptedCounts(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var counts models.EncryptedCountsResponse
	testutil.AssertJSON(t, w, &counts)

	w = submitDecryption(t, decryptionHandler, counts.Handles)
	testutil.AssertStatus(t, w, http.StatusAccepted)
	var early models.DecryptionResponse
	testutil.AssertJSON(t, w, &early)
	if resp := pollDecryption(t, decryptionHandler, early.ID); resp.Status != string(decryption.StatusRejected) {
		t.Fatalf("Step 4 - Expected private counts to be rejected, got %s", resp.Status)
	}

	// Step 5: Anyone may reveal
	req = testutil.MakeSignedRequest(t, testutil.NewParticipant(t), "POST", "/questions/0/reveal", nil)
	req.SetPathValue("id", "0")
	w = httptest.NewRecorder()
	surveyHandler.RequestPublicResults(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var reveal models.RevealResponse
	testutil.AssertJSON(t, w, &reveal)
	if reveal.Status != string(survey.StatusPubliclyRequested) || len(reveal.Handles) != 4 {
		t.Fatalf("Step 5 - Unexpected reveal state: %+v", reveal)
	}

	// Step 6: Decrypt the revealed counts
	w = submitDecryption(t, decryptionHandler, reveal.Handles)
	testutil.AssertStatus(t, w, http.StatusAccepted)
	var submitted models.DecryptionResponse
	testutil.AssertJSON(t, w, &submitted)

	result := pollDecryption(t, decryptionHandler, submitted.ID)
	if result.Status != string(decryption.StatusResolved) {
		t.Fatalf("Step 6 - Expected resolved, got %s (%s)", result.Status, result.Reason)
	}

	expected := []uint64{0, 2, 0, 1}
	for i := range expected {
		if result.Values[i] != expected[i] {
			t.Fatalf("Step 6 - Expected %v, got %v", expected, result.Values)
		}
	}
	t.Logf("Step 6 - Revealed counts %v", result.Values)
}

// TestQuestionsAreIndependent answers two questions with overlapping
// participants and checks each question's counters separately
func TestQuestionsAreIndependent(t *testing.T) {
	f := testutil.NewFixture(t)
	handler := NewSurveyHandler(f.Engine)

	alice := testutil.NewParticipant(t)
	bob := testutil.NewParticipant(t)

	answers := []struct {
		p      testutil.Participant
		id     int
		choice int
	}{
		{alice, 3, 0},
		{alice, 4, 2},
		{bob, 3, 2},
		{bob, 4, 2},
	}
	for _, a := range answers {
		w := submitAnswer(t, handler, a.p, a.id, answerRequest(t, f, a.p, a.id, a.choice))
		testutil.AssertStatus(t, w, http.StatusCreated)
	}

	assertCountsHTTP(t, f, 3, 1, 0, 1)
	assertCountsHTTP(t, f, 4, 0, 0, 2)
	assertCountsHTTP(t, f, 0, 0, 0, 0, 0)
}

// TestRevealIsSnapshot checks that answers after a reveal update the live
// counters but not the revealed handles
func TestRevealIsSnapshot(t *testing.T) {
	f := testutil.NewFixture(t)
	handler := NewSurveyHandler(f.Engine)

	f.Submit(t, testutil.NewParticipant(t), 1, 0)

	req := testutil.MakeSignedRequest(t, testutil.NewParticipant(t), "POST", "/questions/1/reveal", nil)
	req.SetPathValue("id", "1")
	w := httptest.NewRecorder()
	handler.RequestPublicResults(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var reveal models.RevealResponse
	testutil.AssertJSON(t, w, &reveal)

	late := testutil.NewParticipant(t)
	w = submitAnswer(t, handler, late, 1, answerRequest(t, f, late, 1, 0))
	testutil.AssertStatus(t, w, http.StatusCreated)

	revealed := f.DecryptHandles(t, reveal.Handles)
	if revealed[0] != 1 {
		t.Errorf("Revealed count changed after reveal: %v", revealed)
	}
	assertCountsHTTP(t, f, 1, 2, 0, 0, 0)

	for i, h := range reveal.Handles {
		public, err := f.Coprocessor.IsPubliclyDecryptable(t.Context(), h)
		if err != nil || !public {
			t.Errorf("Revealed handle %d not public (err=%v)", i, err)
		}
	}
}
