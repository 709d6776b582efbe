package notify

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/hitoshi/fit2fit/internal/model"
)

const (
	defaultMealName         = "Fitness Enthusiast"
	defaultConfirmationName = "there"
)

// MealEvent は食事リマインダー1件分の整形入力。
type MealEvent struct {
	Name      string
	Slot      string
	Meal      string
	Time      string
	ClassType model.ClassType
}

// SubscriptionEvent は購読確認メッセージの整形入力。
type SubscriptionEvent struct {
	Name      string
	ClassType model.ClassType
}

// Formatter はイベントをチャネル別のメッセージ本文に整形する。副作用を持たない。
type Formatter struct {
	baseURL string
}

// NewFormatter はメッセージ内のリンク先baseURLを指定してFormatterを生成する。
func NewFormatter(baseURL string) *Formatter {
	return &Formatter{baseURL: baseURL}
}

type mealView struct {
	MealEvent
	BaseURL string
}

type subscriptionView struct {
	SubscriptionEvent
	BaseURL string
}

// MealReminderEmail は食事リマインダーのメール（HTML + テキスト）を生成する。
func (f *Formatter) MealReminderEmail(ev MealEvent) (Message, error) {
	ev.Name = nameOr(ev.Name, defaultMealName)
	view := mealView{MealEvent: ev, BaseURL: f.baseURL}

	text, err := renderText(mealEmailText, view)
	if err != nil {
		return Message{}, err
	}
	html, err := renderHTML(mealEmailHTML, view)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Subject: "🍽️ Meal Reminder: " + ev.Slot + " - " + ev.Time,
		Text:    text,
		HTML:    html,
	}, nil
}

// MealReminderChat は食事リマインダーのチャットメッセージを生成する。
func (f *Formatter) MealReminderChat(ev MealEvent) (Message, error) {
	ev.Name = nameOr(ev.Name, defaultMealName)
	text, err := renderText(mealChatText, mealView{MealEvent: ev, BaseURL: f.baseURL})
	if err != nil {
		return Message{}, err
	}
	return Message{Text: text}, nil
}

// SubscriptionEmail は購読確認のメールを生成する。
func (f *Formatter) SubscriptionEmail(ev SubscriptionEvent) (Message, error) {
	ev.Name = nameOr(ev.Name, defaultConfirmationName)
	view := subscriptionView{SubscriptionEvent: ev, BaseURL: f.baseURL}

	text, err := renderText(subscriptionEmailText, view)
	if err != nil {
		return Message{}, err
	}
	html, err := renderHTML(subscriptionEmailHTML, view)
	if err != nil {
		return Message{}, err
	}
	return Message{
		Subject: "✅ Subscribed to Diet Plan Reminders",
		Text:    text,
		HTML:    html,
	}, nil
}

// SubscriptionChat は購読確認のチャットメッセージを生成する。
func (f *Formatter) SubscriptionChat(ev SubscriptionEvent) (Message, error) {
	ev.Name = nameOr(ev.Name, defaultConfirmationName)
	text, err := renderText(subscriptionChatText, subscriptionView{SubscriptionEvent: ev, BaseURL: f.baseURL})
	if err != nil {
		return Message{}, err
	}
	return Message{Text: text}, nil
}

func nameOr(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

func renderText(tmpl *texttemplate.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func renderHTML(tmpl *htmltemplate.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var mealEmailHTML = htmltemplate.Must(htmltemplate.New("meal_email").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0; padding: 0; }
  .container { max-width: 600px; margin: 20px auto; background-color: #ffffff; border-radius: 10px; overflow: hidden; }
  .header { background: #000000; color: #39ff14; padding: 30px; text-align: center; }
  .content { padding: 30px; }
  .meal-card { background: #f8f9fa; border-left: 4px solid #39ff14; padding: 20px; margin: 20px 0; border-radius: 8px; }
  .meal-name { font-size: 22px; font-weight: bold; color: #000000; margin-bottom: 10px; }
  .meal-time { font-size: 16px; color: #39ff14; font-weight: bold; margin-bottom: 15px; }
  .meal-details { font-size: 16px; color: #333333; line-height: 1.6; }
  .class-badge { display: inline-block; background-color: #39ff14; color: #000000; padding: 8px 16px; border-radius: 20px; font-size: 12px; font-weight: bold; }
  .tips { background-color: #fff3cd; border-left: 4px solid #ffc107; padding: 15px; margin: 20px 0; border-radius: 5px; color: #856404; }
  .footer { background-color: #f8f9fa; padding: 20px; text-align: center; color: #6c757d; font-size: 12px; }
  .cta-button { display: inline-block; background-color: #39ff14; color: #000000; padding: 12px 30px; text-decoration: none; border-radius: 25px; font-weight: bold; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>⏰ Meal Time Reminder</h1>
    <p>Fit2Fit Gym - Your Nutrition Partner</p>
  </div>
  <div class="content">
    <p>Hi {{.Name}},</p>
    <p>It's time for your <strong>{{.Slot}}</strong>!</p>
    <div class="meal-card">
      <div class="meal-name">{{.Slot}}</div>
      <div class="meal-time">⏰ {{.Time}}</div>
      <div class="meal-details">{{.Meal}}</div>
      <span class="class-badge">{{.ClassType}} Diet Plan</span>
    </div>
    <div class="tips">
      <h3>💡 Quick Tip</h3>
      <p>Stay consistent with your meal timing for best results. Proper nutrition is 70% of your fitness journey!</p>
    </div>
    <p style="text-align: center;"><a href="{{.BaseURL}}" class="cta-button">View Full Diet Plan</a></p>
  </div>
  <div class="footer">
    <p><strong>Fit2Fit Gym</strong></p>
    <p>Building Better Bodies, One Meal at a Time</p>
    <p>You're receiving this because you subscribed to meal reminders.<br>To unsubscribe, visit your class diet plan page.</p>
  </div>
</div>
</body>
</html>
`))

var mealEmailText = texttemplate.Must(texttemplate.New("meal_email_text").Parse(`
Meal Time Reminder - Fit2Fit Gym

Hi {{.Name}},

It's time for your {{.Slot}}!

⏰ {{.Time}}
📋 {{.Meal}}

Class: {{.ClassType}} Diet Plan

Quick Tip: Stay consistent with your meal timing for best results. Proper nutrition is 70% of your fitness journey!

Visit {{.BaseURL}} to view your full diet plan.

---
Fit2Fit Gym - Building Better Bodies, One Meal at a Time
`))

var mealChatText = texttemplate.Must(texttemplate.New("meal_chat").Parse(`
🍽️ *Meal Time Reminder - Fit2Fit Gym*

Hi {{.Name}}! ⏰

It's time for your *{{.Slot}}*!

⏰ *Time:* {{.Time}}
📋 *Details:* {{.Meal}}
🏋️ *Plan:* {{.ClassType}} Diet Plan

💡 *Quick Tip:* Stay consistent with your meal timing for best results. Proper nutrition is 70% of your fitness journey!

Visit your diet plan: {{.BaseURL}}

---
Fit2Fit Gym - Building Better Bodies, One Meal at a Time 💪
`))

var subscriptionEmailHTML = htmltemplate.Must(htmltemplate.New("subscription_email").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0; padding: 0; }
  .container { max-width: 600px; margin: 20px auto; background-color: #ffffff; border-radius: 10px; overflow: hidden; }
  .header { background: #000000; color: #39ff14; padding: 30px; text-align: center; }
  .content { padding: 30px; }
  .success-icon { font-size: 60px; text-align: center; margin: 20px 0; }
</style>
</head>
<body>
<div class="container">
  <div class="header"><h1>Welcome to Meal Reminders!</h1></div>
  <div class="content">
    <div class="success-icon">✅</div>
    <h2 style="text-align: center; color: #39ff14;">Subscription Confirmed!</h2>
    <p>Hi {{.Name}},</p>
    <p>You've successfully subscribed to meal reminders for the <strong>{{.ClassType}}</strong> diet plan.</p>
    <p>You'll receive timely email reminders for each meal throughout the day to help you stay on track with your nutrition goals.</p>
    <p style="margin-top: 30px;">Stay committed, stay healthy! 💪</p>
  </div>
</div>
</body>
</html>
`))

var subscriptionEmailText = texttemplate.Must(texttemplate.New("subscription_email_text").Parse(`
Subscription Confirmed - Fit2Fit Gym

Hi {{.Name}},

You've successfully subscribed to meal reminders for the {{.ClassType}} diet plan.

You'll receive timely email reminders for each meal throughout the day to help you stay on track with your nutrition goals.

Stay committed, stay healthy!
`))

var subscriptionChatText = texttemplate.Must(texttemplate.New("subscription_chat").Parse(`
✅ *Subscription Confirmed - Fit2Fit Gym*

Hi {{.Name}}! 🎉

You've successfully subscribed to meal reminders for the *{{.ClassType}}* diet plan.

You'll receive timely WhatsApp reminders for each meal throughout the day to help you stay on track with your nutrition goals.

Stay committed, stay healthy! 💪

---
Fit2Fit Gym
`))
